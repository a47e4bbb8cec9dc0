package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpadapter "sourplanet/internal/adapter/http"
	metricsinmem "sourplanet/internal/adapter/metrics/inmemory"
	"sourplanet/internal/adapter/metrics/prom"
	gormrepo "sourplanet/internal/adapter/repo/gorm"
	"sourplanet/internal/adapter/repo/memory"
	"sourplanet/internal/app/auth"
	"sourplanet/internal/app/ports"
	"sourplanet/internal/app/replay"
	"sourplanet/internal/app/session"
	"sourplanet/internal/app/status"
	"sourplanet/internal/config"
	"sourplanet/migrations"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("sourplanet server stopped", "err", err)
		os.Exit(1)
	}
}

// loadConfig reads SOURPLANET_CONFIG when set, then overlays SOURPLANET_* variables.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if path := strings.TrimSpace(os.Getenv("SOURPLANET_CONFIG")); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

type repos struct {
	states      ports.PlanetStateRepository
	events      ports.EventRepository
	credentials ports.PlayerCredentialRepository
	tx          ports.TxManager
	close       func() error
}

func buildRepos(ctx context.Context, cfg config.Config, logger *slog.Logger) (repos, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := gormrepo.OpenPostgres(cfg.Storage.DSN,
			gormrepo.WithLogger(logger),
			gormrepo.WithPool(gormrepo.PoolConfig{
				MaxOpenConns:    cfg.Storage.MaxOpenConns,
				MaxIdleConns:    cfg.Storage.MaxIdleConns,
				ConnMaxLifetime: 30 * time.Minute,
			}),
		)
		if err != nil {
			return repos{}, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return repos{}, fmt.Errorf("postgres handle: %w", err)
		}
		if cfg.Storage.Migrate {
			applied, err := gormrepo.ApplyMigrations(ctx, db, migrations.FS)
			if err != nil {
				_ = sqlDB.Close()
				return repos{}, err
			}
			logger.Info("migrations applied", "files", applied)
		}
		return repos{
			states:      gormrepo.NewPlanetStateRepo(db),
			events:      gormrepo.NewEventRepo(db),
			credentials: gormrepo.NewPlayerCredentialRepo(db),
			tx:          gormrepo.NewTxManager(db),
			close:       sqlDB.Close,
		}, nil
	case config.DriverMemory:
		logger.Warn("using in-memory store; sessions are lost on restart")
		store := memory.NewStore()
		return repos{
			states:      memory.NewPlanetStateRepo(store),
			events:      memory.NewEventRepo(store),
			credentials: memory.NewPlayerCredentialRepo(store),
			tx:          memory.NewTxManager(store),
			close:       func() error { return nil },
		}, nil
	default:
		return repos{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func buildHandler(cfg config.Config, r repos, reg *prometheus.Registry, logger *slog.Logger) (httpadapter.Handler, error) {
	policy, err := cfg.RearmPolicy()
	if err != nil {
		return httpadapter.Handler{}, err
	}
	planetCfg := cfg.PlanetConfig()
	kpiRecorder := metricsinmem.NewRecorder()

	sessions := session.UseCase{
		TxManager:      r.tx,
		StateRepo:      r.states,
		EventRepo:      r.events,
		Metrics:        prom.Fanout{kpiRecorder, prom.NewRecorder(reg)},
		Config:         planetCfg,
		Rearm:          policy,
		MaxCatchUp:     cfg.MaxCatchUp(),
		ClicksDisabled: cfg.Session.ClicksDisabled,
		Logger:         logger,
		Now:            time.Now,
	}
	h := httpadapter.Handler{
		RegisterUC: auth.RegisterUseCase{
			Credentials: r.credentials,
			Sessions:    sessions,
			TxManager:   r.tx,
			Now:         time.Now,
		},
		AuthUC:    auth.VerifyUseCase{Credentials: r.credentials},
		SessionUC: sessions,
		StatusUC: status.UseCase{
			StateRepo:  r.states,
			EventRepo:  r.events,
			Config:     planetCfg,
			Rearm:      policy,
			MaxCatchUp: cfg.MaxCatchUp(),
			Now:        time.Now,
		},
		ReplayUC: replay.UseCase{Events: r.events},
		Upgrades: planetCfg.Upgrades,
		KPI:      kpiRecorder,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Origins:  cfg.Server.CORSOrigins,
	}
	if cfg.Server.RatePerSecond > 0 {
		h.Limiter = httpadapter.NewRateLimiter(cfg.Server.RatePerSecond, cfg.Server.RateBurst)
	}
	return h, nil
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	r, err := buildRepos(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.close(); err != nil {
			logger.Warn("close store", "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	h, err := buildHandler(cfg, r, reg, logger)
	if err != nil {
		return err
	}

	s := server.Default(
		server.WithHostPorts(cfg.Server.Addr),
		server.WithExitWaitTime(cfg.ShutdownTimeout()),
	)
	h.RegisterRoutes(s)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("sourplanet server listening",
			"addr", cfg.Server.Addr,
			"storage", cfg.Storage.Driver,
			"rearm_mode", cfg.Session.RearmMode,
		)
		if err := s.Run(); err != nil && gctx.Err() == nil {
			return fmt.Errorf("hertz run: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		logger.Info("shutting down")
		if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("hertz shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
