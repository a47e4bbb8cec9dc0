package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"sourplanet/internal/app/rearm"
	"sourplanet/internal/domain/planet"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

// Config is the full server and tuning configuration. Fields absent from a YAML file keep their
// defaults.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Session SessionConfig `yaml:"session" json:"session"`
	Planet  PlanetConfig  `yaml:"planet" json:"planet"`
}

type ServerConfig struct {
	Addr                   string  `yaml:"addr" json:"addr" validate:"required"`
	RatePerSecond          float64 `yaml:"rate_per_second" json:"rate_per_second" validate:"gte=0"`
	RateBurst              int     `yaml:"rate_burst" json:"rate_burst" validate:"gte=0"`
	ShutdownTimeoutSeconds int     `yaml:"shutdown_timeout_seconds" json:"shutdown_timeout_seconds" validate:"gte=0"`
	// CORSOrigins lists the browser origins allowed to call the API. "*" allows any origin.
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins" validate:"dive,required"`
}

type StorageConfig struct {
	Driver       string `yaml:"driver" json:"driver" validate:"oneof=memory postgres"`
	DSN          string `yaml:"dsn" json:"-" validate:"required_if=Driver postgres"`
	Migrate      bool   `yaml:"migrate" json:"migrate"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `yaml:"max_idle_conns" json:"max_idle_conns" validate:"gte=0"`
}

type SessionConfig struct {
	MaxCatchUpSeconds int    `yaml:"max_catch_up_seconds" json:"max_catch_up_seconds" validate:"gte=0"`
	ClicksDisabled    bool   `yaml:"clicks_disabled" json:"clicks_disabled"`
	RearmMode         string `yaml:"rearm_mode" json:"rearm_mode" validate:"omitempty,oneof=manual after"`
	RearmDelaySeconds int    `yaml:"rearm_delay_seconds" json:"rearm_delay_seconds" validate:"gte=0"`
}

type PlanetConfig struct {
	BaseRate    float64           `yaml:"base_rate" json:"base_rate" validate:"gte=0"`
	ClickPower  float64           `yaml:"click_power" json:"click_power" validate:"gte=0"`
	Environment EnvironmentConfig `yaml:"environment" json:"environment"`
	Bonus       BonusConfig       `yaml:"bonus" json:"bonus"`
	Upgrades    []UpgradeConfig   `yaml:"upgrades" json:"upgrades" validate:"dive"`
}

type EnvironmentConfig struct {
	Min               float64 `yaml:"min" json:"min"`
	Max               float64 `yaml:"max" json:"max" validate:"gtfield=Min"`
	OptimalLow        float64 `yaml:"optimal_low" json:"optimal_low"`
	OptimalHigh       float64 `yaml:"optimal_high" json:"optimal_high" validate:"gtefield=OptimalLow"`
	StartLevel        float64 `yaml:"start_level" json:"start_level"`
	DriftRate         float64 `yaml:"drift_rate" json:"drift_rate"`
	MaxModifier       float64 `yaml:"max_modifier" json:"max_modifier" validate:"gte=0"`
	FloorModifier     float64 `yaml:"floor_modifier" json:"floor_modifier" validate:"gte=0"`
	ClickPerturbation float64 `yaml:"click_perturbation" json:"click_perturbation"`
}

type BonusConfig struct {
	DurationSeconds float64 `yaml:"duration_seconds" json:"duration_seconds" validate:"gt=0"`
	MaxModifier     float64 `yaml:"max_modifier" json:"max_modifier" validate:"gte=0"`
}

type UpgradeConfig struct {
	ID              string  `yaml:"id" json:"id" validate:"required"`
	Name            string  `yaml:"name" json:"name"`
	BaseCost        float64 `yaml:"base_cost" json:"base_cost" validate:"gt=0"`
	CostMultiplier  float64 `yaml:"cost_multiplier" json:"cost_multiplier" validate:"gt=1"`
	ProductionBonus float64 `yaml:"production_bonus" json:"production_bonus" validate:"gte=0"`
	RequiresID      string  `yaml:"requires_id,omitempty" json:"requires_id,omitempty"`
	RequiresCount   int     `yaml:"requires_count,omitempty" json:"requires_count,omitempty" validate:"gte=0"`
	MinEvents       int64   `yaml:"min_events,omitempty" json:"min_events,omitempty" validate:"gte=0"`
}

// Default mirrors planet.DefaultConfig with an in-memory store on :8080.
func Default() Config {
	p := planet.DefaultConfig()
	upgrades := make([]UpgradeConfig, 0, len(p.Upgrades))
	for _, def := range p.Upgrades {
		upgrades = append(upgrades, UpgradeConfig{
			ID:              def.ID,
			Name:            def.Name,
			BaseCost:        def.BaseCost,
			CostMultiplier:  def.CostMultiplier,
			ProductionBonus: def.ProductionBonus,
			RequiresID:      def.Unlock.RequiresID,
			RequiresCount:   def.Unlock.RequiresCount,
			MinEvents:       def.Unlock.MinEvents,
		})
	}
	return Config{
		Server: ServerConfig{
			Addr:                   ":8080",
			RatePerSecond:          20,
			RateBurst:              40,
			ShutdownTimeoutSeconds: 10,
			CORSOrigins:            []string{"*"},
		},
		Storage: StorageConfig{
			Driver:       DriverMemory,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Session: SessionConfig{
			MaxCatchUpSeconds: int((24 * time.Hour).Seconds()),
			RearmMode:         string(rearm.ModeManual),
		},
		Planet: PlanetConfig{
			BaseRate:   p.BaseRate,
			ClickPower: p.ClickPower,
			Environment: EnvironmentConfig{
				Min:               p.Environment.Min,
				Max:               p.Environment.Max,
				OptimalLow:        p.Environment.OptimalLow,
				OptimalHigh:       p.Environment.OptimalHigh,
				StartLevel:        p.Environment.StartLevel,
				DriftRate:         p.Environment.DriftRate,
				MaxModifier:       p.Environment.MaxModifier,
				FloorModifier:     p.Environment.FloorModifier,
				ClickPerturbation: p.Environment.ClickPerturbation,
			},
			Bonus: BonusConfig{
				DurationSeconds: p.Bonus.DurationSeconds,
				MaxModifier:     p.Bonus.MaxModifier,
			},
			Upgrades: upgrades,
		},
	}
}

// Load reads a YAML file over the defaults. An upgrades list in the file replaces the default
// catalog as a whole.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field tags first and then the engine's own configuration rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := rearm.ParseMode(c.Session.RearmMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.PlanetConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) PlanetConfig() planet.Config {
	upgrades := make([]planet.UpgradeDefinition, 0, len(c.Planet.Upgrades))
	for _, u := range c.Planet.Upgrades {
		upgrades = append(upgrades, planet.UpgradeDefinition{
			ID:              u.ID,
			Name:            u.Name,
			BaseCost:        u.BaseCost,
			CostMultiplier:  u.CostMultiplier,
			ProductionBonus: u.ProductionBonus,
			Unlock: planet.UnlockCondition{
				RequiresID:    u.RequiresID,
				RequiresCount: u.RequiresCount,
				MinEvents:     u.MinEvents,
			},
		})
	}
	env := c.Planet.Environment
	return planet.Config{
		BaseRate:   c.Planet.BaseRate,
		ClickPower: c.Planet.ClickPower,
		Environment: planet.EnvironmentConfig{
			Min:               env.Min,
			Max:               env.Max,
			OptimalLow:        env.OptimalLow,
			OptimalHigh:       env.OptimalHigh,
			StartLevel:        env.StartLevel,
			DriftRate:         env.DriftRate,
			MaxModifier:       env.MaxModifier,
			FloorModifier:     env.FloorModifier,
			ClickPerturbation: env.ClickPerturbation,
		},
		Bonus: planet.BonusConfig{
			DurationSeconds: c.Planet.Bonus.DurationSeconds,
			MaxModifier:     c.Planet.Bonus.MaxModifier,
		},
		Upgrades: upgrades,
	}
}

func (c Config) RearmPolicy() (rearm.Policy, error) {
	mode, err := rearm.ParseMode(c.Session.RearmMode)
	if err != nil {
		return rearm.Policy{}, err
	}
	return rearm.Policy{
		Mode:  mode,
		Delay: time.Duration(c.Session.RearmDelaySeconds) * time.Second,
	}, nil
}

// MaxCatchUp is zero when offline catch-up is uncapped.
func (c Config) MaxCatchUp() time.Duration {
	return time.Duration(c.Session.MaxCatchUpSeconds) * time.Second
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}
