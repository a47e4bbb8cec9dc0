package planet

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultLevelMin         = 0.0
	DefaultLevelMax         = 14.0
	DefaultOptimalLow       = 3.0
	DefaultOptimalHigh      = 5.0
	DefaultStartLevel       = 7.0
	DefaultDriftRate        = -0.02
	DefaultMaxModifier      = 1.0
	DefaultFloorModifier    = 0.5
	DefaultClickPerturb     = 0.1
	DefaultBaseRate         = 1.0
	DefaultClickPower       = 1.0
	DefaultBonusDuration    = 50.0
	DefaultBonusMaxModifier = 0.5
)

type EnvironmentConfig struct {
	Min           float64
	Max           float64
	OptimalLow    float64
	OptimalHigh   float64
	StartLevel    float64
	DriftRate     float64
	MaxModifier   float64
	FloorModifier float64

	// ClickPerturbation is the signed level change applied after every processed click.
	ClickPerturbation float64
}

type BonusConfig struct {
	DurationSeconds float64
	MaxModifier     float64
}

type Config struct {
	BaseRate    float64
	ClickPower  float64
	Environment EnvironmentConfig
	Bonus       BonusConfig
	Upgrades    []UpgradeDefinition
}

func DefaultConfig() Config {
	return Config{
		BaseRate:   DefaultBaseRate,
		ClickPower: DefaultClickPower,
		Environment: EnvironmentConfig{
			Min:               DefaultLevelMin,
			Max:               DefaultLevelMax,
			OptimalLow:        DefaultOptimalLow,
			OptimalHigh:       DefaultOptimalHigh,
			StartLevel:        DefaultStartLevel,
			DriftRate:         DefaultDriftRate,
			MaxModifier:       DefaultMaxModifier,
			FloorModifier:     DefaultFloorModifier,
			ClickPerturbation: DefaultClickPerturb,
		},
		Bonus: BonusConfig{
			DurationSeconds: DefaultBonusDuration,
			MaxModifier:     DefaultBonusMaxModifier,
		},
		Upgrades: DefaultUpgrades(),
	}
}

// DefaultUpgrades is the sour-planet catalog.
func DefaultUpgrades() []UpgradeDefinition {
	return []UpgradeDefinition{
		{ID: "lemon_grove", Name: "Lemon Grove", BaseCost: 15, CostMultiplier: 1.15, ProductionBonus: 0.1},
		{ID: "vinegar_vat", Name: "Vinegar Vat", BaseCost: 100, CostMultiplier: 1.15, ProductionBonus: 0.5},
		{ID: "citric_refinery", Name: "Citric Refinery", BaseCost: 1100, CostMultiplier: 1.15, ProductionBonus: 2,
			Unlock: UnlockCondition{RequiresID: "vinegar_vat", RequiresCount: 5}},
		{ID: "acid_geyser", Name: "Acid Geyser", BaseCost: 12000, CostMultiplier: 1.2, ProductionBonus: 10,
			Unlock: UnlockCondition{RequiresID: "citric_refinery", RequiresCount: 3, MinEvents: 500}},
	}
}

// Validate reports every problem found, wrapped in ErrInvalidConfiguration.
func (c Config) Validate() error {
	problems := make([]string, 0)
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if !finite(c.BaseRate) || c.BaseRate < 0 {
		add("base rate must be a non-negative number")
	}
	if !finite(c.ClickPower) || c.ClickPower < 0 {
		add("click power must be a non-negative number")
	}

	env := c.Environment
	if !finite(env.Min) || !finite(env.Max) || env.Min >= env.Max {
		add("environment bounds inverted: min=%v max=%v", env.Min, env.Max)
	}
	if env.OptimalLow > env.OptimalHigh {
		add("optimal range inverted: low=%v high=%v", env.OptimalLow, env.OptimalHigh)
	}
	if env.OptimalLow < env.Min || env.OptimalHigh > env.Max {
		add("optimal range [%v,%v] outside bounds [%v,%v]", env.OptimalLow, env.OptimalHigh, env.Min, env.Max)
	}
	if !finite(env.DriftRate) || !finite(env.ClickPerturbation) || !finite(env.StartLevel) {
		add("environment drift, perturbation and start level must be finite")
	}
	if env.FloorModifier < 0 || env.FloorModifier > env.MaxModifier {
		add("floor modifier %v must be within [0,%v]", env.FloorModifier, env.MaxModifier)
	}

	if !finite(c.Bonus.DurationSeconds) || c.Bonus.DurationSeconds <= 0 {
		add("bonus duration must be positive")
	}
	if !finite(c.Bonus.MaxModifier) || c.Bonus.MaxModifier < 0 {
		add("bonus max modifier must be non-negative")
	}

	seen := make(map[string]bool, len(c.Upgrades))
	for _, def := range c.Upgrades {
		if strings.TrimSpace(def.ID) == "" {
			add("upgrade with empty id")
			continue
		}
		if seen[def.ID] {
			add("duplicate upgrade %q", def.ID)
		}
		seen[def.ID] = true
		if !finite(def.BaseCost) || def.BaseCost <= 0 {
			add("upgrade %q base cost must be positive", def.ID)
		}
		if !finite(def.CostMultiplier) || def.CostMultiplier <= 1 {
			add("upgrade %q cost multiplier must be greater than 1", def.ID)
		}
		if !finite(def.ProductionBonus) || def.ProductionBonus < 0 {
			add("upgrade %q production bonus must be non-negative", def.ID)
		}
	}
	for _, def := range c.Upgrades {
		if def.Unlock.RequiresID != "" && !seen[def.Unlock.RequiresID] {
			add("upgrade %q requires unknown upgrade %q", def.ID, def.Unlock.RequiresID)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
