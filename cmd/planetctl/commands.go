package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sourplanet/internal/app/replay"
	"sourplanet/internal/app/session"
	"sourplanet/internal/app/shared/catchup"
	"sourplanet/internal/app/status"
	"sourplanet/internal/domain/planet"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	rejectColor  = color.New(color.FgRed, color.Bold)
)

func newNewCmd(opts *options, current func() *workspace) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create a new planet for the player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws := current()
			resp, err := ws.sessions.Start(cmd.Context(), session.StartRequest{PlayerID: opts.playerID})
			if err != nil {
				return fmt.Errorf("create planet %s: %w", opts.playerID, err)
			}
			successColor.Fprintf(ws.out, "✓ planet %s created\n", resp.State.PlayerID)
			printStatus(ws.out, resp.Status)
			return nil
		},
	}
}

func newStatusCmd(opts *options, current func() *workspace) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the planet as of now without saving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws := current()
			resp, err := ws.status.Execute(cmd.Context(), status.Request{PlayerID: opts.playerID})
			if err != nil {
				return err
			}
			titleColor.Fprintf(ws.out, "Planet %s (version %d)\n", resp.PlayerID, resp.Version)
			fmt.Fprintf(ws.out, "Pending offline time: %s (+%.2f)\n", seconds(resp.PendingSeconds), resp.PendingProduced)
			if resp.RearmInSeconds > 0 {
				fmt.Fprintf(ws.out, "Bonus re-arms in %ds\n", resp.RearmInSeconds)
			}
			printStatus(ws.out, resp.Status)
			printUpgrades(ws.out, resp.Status.Upgrades)
			return nil
		},
	}
}

func newSyncCmd(opts *options, current func() *workspace) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Catch up offline time and save",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := execute(cmd, current(), session.Request{PlayerID: opts.playerID, Action: session.ActionSync})
			if err != nil {
				return err
			}
			printStatus(current().out, resp.Status)
			return nil
		},
	}
}

func newClickCmd(opts *options, current func() *workspace) *cobra.Command {
	return &cobra.Command{
		Use:   "click [count]",
		Short: "Click the planet (up to 100 times per call)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clicks := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("click count %q: %w", args[0], err)
				}
				clicks = n
			}
			resp, err := execute(cmd, current(), session.Request{PlayerID: opts.playerID, Action: session.ActionClick, Clicks: clicks})
			if err != nil {
				return err
			}
			successColor.Fprintf(current().out, "✓ +%.0f from %d click(s)\n", resp.ClickGrant, clicks)
			return nil
		},
	}
}

func newBuyCmd(opts *options, current func() *workspace) *cobra.Command {
	return &cobra.Command{
		Use:   "buy <upgrade-id>",
		Short: "Buy one level of an upgrade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := execute(cmd, current(), session.Request{PlayerID: opts.playerID, Action: session.ActionPurchase, UpgradeID: args[0]})
			if err != nil {
				return err
			}
			successColor.Fprintf(current().out, "✓ bought %s for %.2f\n", args[0], resp.Cost)
			printUpgrades(current().out, resp.Status.Upgrades)
			return nil
		},
	}
}

func newBonusCmd(opts *options, current func() *workspace) *cobra.Command {
	bonus := &cobra.Command{
		Use:   "bonus",
		Short: "Start or re-arm the timed production bonus",
	}
	for _, sub := range []struct {
		use, short string
		action     session.ActionType
	}{
		{"start", "Start the bonus while the environment is optimal", session.ActionStartBonus},
		{"rearm", "Return an expired bonus to idle", session.ActionRearmBonus},
	} {
		bonus.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				resp, err := execute(cmd, current(), session.Request{PlayerID: opts.playerID, Action: sub.action})
				if err != nil {
					return err
				}
				successColor.Fprintf(current().out, "✓ bonus is %s\n", resp.Status.BonusPhase)
				return nil
			},
		})
	}
	return bonus
}

func newProjectCmd(opts *options, current func() *workspace) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "project <duration>",
		Short: "Project the planet forward without saving, e.g. project 8h",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			horizon, err := time.ParseDuration(args[0])
			if err != nil || horizon <= 0 {
				return fmt.Errorf("invalid duration %q", args[0])
			}
			if steps < 1 {
				steps = 1
			}
			ws := current()
			state, err := ws.states.GetByPlayerID(cmd.Context(), opts.playerID)
			if err != nil {
				return err
			}
			cfg := ws.cfg.PlanetConfig()
			pending := catchup.ElapsedSeconds(state.UpdatedAt, time.Now(), ws.cfg.MaxCatchUp())

			rows := make([]projectionRow, 0, steps)
			for i := 1; i <= steps; i++ {
				ahead := horizon.Seconds() * float64(i) / float64(steps)
				projected, produced, err := planet.Project(cfg, state.Snapshot, pending+ahead)
				if err != nil {
					return err
				}
				rows = append(rows, projectionRow{ahead: ahead, produced: produced, status: projected})
			}
			titleColor.Fprintf(ws.out, "Projection for %s (%s offline pending)\n", opts.playerID, seconds(pending))
			printProjection(ws.out, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 4, "number of rows between now and the horizon")
	return cmd
}

func newEventsCmd(opts *options, current func() *workspace) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recent notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws := current()
			resp, err := ws.replay.Execute(cmd.Context(), replay.Request{PlayerID: opts.playerID, Limit: limit})
			if err != nil {
				return err
			}
			printEvents(ws.out, resp.Events)
			fmt.Fprintf(ws.out, "Produced %.2f, clicked %.0f, spent %.2f\n", resp.Summary.Produced, resp.Summary.ClickGranted, resp.Summary.Spent)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum events to show")
	return cmd
}

func newPlayersCmd(current func() *workspace) *cobra.Command {
	return &cobra.Command{
		Use:   "players",
		Short: "List planets in the save directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws := current()
			ids, err := ws.states.ListPlayerIDs(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(ws.out, id)
			}
			return nil
		},
	}
}

func newCatalogCmd(opts *options) *cobra.Command {
	var levels int
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the upgrade catalog and its cost ladder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), cfg.PlanetConfig().Upgrades, levels)
			return nil
		},
	}
	cmd.Flags().IntVar(&levels, "levels", 5, "number of cost ladder steps to show")
	return cmd
}

// execute runs one session action and prints the catch-up line. Domain rejections are shown in red.
func execute(cmd *cobra.Command, ws *workspace, req session.Request) (session.Response, error) {
	resp, err := ws.sessions.Execute(cmd.Context(), req)
	if err != nil {
		var rejected *session.ActionRejectedError
		if errors.As(err, &rejected) {
			rejectColor.Fprintf(ws.out, "✗ %s rejected: %s\n", rejected.Action, rejected.Kind())
		}
		return session.Response{}, err
	}
	if resp.CaughtUpSeconds > 0 {
		fmt.Fprintf(ws.out, "Caught up %s offline (+%.2f)\n", seconds(resp.CaughtUpSeconds), resp.Produced)
	}
	return resp, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Second)
}
