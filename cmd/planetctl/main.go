package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	badgerrepo "sourplanet/internal/adapter/repo/badger"
	"sourplanet/internal/app/replay"
	"sourplanet/internal/app/session"
	"sourplanet/internal/app/status"
	"sourplanet/internal/config"
)

type options struct {
	dataDir    string
	configPath string
	playerID   string
	verbose    bool
}

// workspace is everything one planetctl invocation needs, backed by a local badger save.
type workspace struct {
	cfg      config.Config
	store    *badgerrepo.Store
	states   badgerrepo.PlanetStateRepo
	sessions session.UseCase
	status   status.UseCase
	replay   replay.UseCase
	out      io.Writer
}

func main() {
	root, closeWorkspace := newRootCmd()
	err := root.Execute()
	if closeErr := closeWorkspace(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd returns the command tree and a function that closes the save opened by whichever
// command ran.
func newRootCmd() (*cobra.Command, func() error) {
	opts := &options{}
	var ws *workspace

	root := &cobra.Command{
		Use:   "planetctl",
		Short: "Play a sour planet from the terminal",
		Long: `planetctl keeps a planet in a local save directory. Offline time since the last
command is caught up in one closed-form step whenever the planet is touched.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !needsWorkspace(cmd) {
				return nil
			}
			var err error
			ws, err = openWorkspace(opts, cmd.OutOrStdout())
			return err
		},
	}
	root.PersistentFlags().StringVar(&opts.dataDir, "data", defaultDataDir(), "save directory")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML tuning file")
	root.PersistentFlags().StringVarP(&opts.playerID, "player", "p", "local", "player id")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log store activity")

	current := func() *workspace { return ws }
	root.AddCommand(
		newNewCmd(opts, current),
		newStatusCmd(opts, current),
		newSyncCmd(opts, current),
		newClickCmd(opts, current),
		newBuyCmd(opts, current),
		newBonusCmd(opts, current),
		newProjectCmd(opts, current),
		newEventsCmd(opts, current),
		newPlayersCmd(current),
		newCatalogCmd(opts),
	)
	closeWorkspace := func() error {
		if ws == nil {
			return nil
		}
		err := ws.store.Close()
		ws = nil
		return err
	}
	return root, closeWorkspace
}

func needsWorkspace(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "catalog", "help":
		return false
	}
	return !cmd.HasParent() || cmd.Parent().Name() != "completion"
}

func defaultDataDir() string {
	if dir := strings.TrimSpace(os.Getenv("SOURPLANET_DATA")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sourplanet"
	}
	return filepath.Join(home, ".sourplanet")
}

func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
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

func openWorkspace(opts *options, out io.Writer) (*workspace, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	policy, err := cfg.RearmPolicy()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := badgerrepo.Open(badgerrepo.Config{
		Path:       opts.dataDir,
		SyncWrites: true,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	states := badgerrepo.NewPlanetStateRepo(store)
	events := badgerrepo.NewEventRepo(store)
	planetCfg := cfg.PlanetConfig()

	return &workspace{
		cfg:    cfg,
		store:  store,
		states: states,
		sessions: session.UseCase{
			TxManager:      badgerrepo.NewTxManager(store),
			StateRepo:      states,
			EventRepo:      events,
			Config:         planetCfg,
			Rearm:          policy,
			MaxCatchUp:     cfg.MaxCatchUp(),
			ClicksDisabled: cfg.Session.ClicksDisabled,
			Logger:         logger,
			Now:            time.Now,
		},
		status: status.UseCase{
			StateRepo:  states,
			EventRepo:  events,
			Config:     planetCfg,
			Rearm:      policy,
			MaxCatchUp: cfg.MaxCatchUp(),
			Now:        time.Now,
		},
		replay: replay.UseCase{Events: events},
		out:    out,
	}, nil
}
