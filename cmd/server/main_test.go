package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sourplanet/internal/app/rearm"
	"sourplanet/internal/app/session"
	"sourplanet/internal/config"

	"github.com/prometheus/client_golang/prometheus"
)

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("SOURPLANET_CONFIG", "")
	t.Setenv("SOURPLANET_DB_DSN", "")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Storage.Driver != config.DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.Storage.Driver)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planet.yaml")
	body := "server:\n  addr: \":9000\"\nsession:\n  rearm_mode: after\n  rearm_delay_seconds: 5\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SOURPLANET_CONFIG", path)
	t.Setenv("SOURPLANET_DB_DSN", "")
	t.Setenv("SOURPLANET_ADDR", ":9100")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Server.Addr != ":9100" {
		t.Fatalf("expected env to win, got %q", cfg.Server.Addr)
	}
	policy, err := cfg.RearmPolicy()
	if err != nil {
		t.Fatalf("rearm policy: %v", err)
	}
	if policy.Mode != rearm.ModeAfter || policy.Delay != 5*time.Second {
		t.Fatalf("unexpected policy: %+v", policy)
	}
}

func TestLoadConfig_RejectsInvalidEnv(t *testing.T) {
	t.Setenv("SOURPLANET_CONFIG", "")
	t.Setenv("SOURPLANET_DB_DSN", "")
	t.Setenv("SOURPLANET_REARM_MODE", "eventually")

	if _, err := loadConfig(); err == nil {
		t.Fatalf("expected invalid rearm mode to fail")
	}
}

func TestBuildHandler_MemoryStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()

	r, err := buildRepos(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("buildRepos error: %v", err)
	}
	defer r.close()

	h, err := buildHandler(cfg, r, prometheus.NewRegistry(), logger)
	if err != nil {
		t.Fatalf("buildHandler error: %v", err)
	}
	if h.Limiter == nil {
		t.Fatalf("expected rate limiter from default config")
	}
	if h.Metrics == nil || h.KPI == nil {
		t.Fatalf("expected metrics and kpi to be wired")
	}

	started, err := h.SessionUC.Start(context.Background(), session.StartRequest{PlayerID: "p1"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if started.State.PlayerID != "p1" || started.State.Version != 1 {
		t.Fatalf("unexpected started state: %+v", started.State)
	}
}

func TestBuildRepos_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "sqlite"
	if _, err := buildRepos(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
