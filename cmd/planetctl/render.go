package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"sourplanet/internal/domain/planet"
)

func printStatus(w io.Writer, s planet.Status) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Balance", "Rate/s", "Level", "Env ×", "Bonus", "Bonus ×", "Upgrades +"}),
	)
	bonus := string(s.BonusPhase)
	if s.BonusPhase == planet.BonusPhaseActive {
		bonus = fmt.Sprintf("active %.0f%% (%.0fs left)", s.BonusProgress*100, s.BonusRemainingSeconds)
	}
	table.Append([]string{
		fmt.Sprintf("%.2f", s.ResourceAmount),
		fmt.Sprintf("%.3f", s.EffectiveRate),
		fmt.Sprintf("%.2f", s.EnvironmentLevel),
		fmt.Sprintf("%.2f", s.EnvironmentModifier),
		bonus,
		fmt.Sprintf("%.2f", s.BonusModifier),
		fmt.Sprintf("%.2f", s.UpgradeBonusSum),
	})
	table.Render()
}

func printUpgrades(w io.Writer, upgrades []planet.UpgradeStatus) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Upgrade", "Owned", "Next cost", "Bonus", "State"}),
	)
	for _, u := range upgrades {
		state := "locked"
		switch {
		case u.Affordable:
			state = "affordable"
		case u.Unlocked:
			state = "unlocked"
		}
		table.Append([]string{
			u.ID,
			fmt.Sprintf("%d", u.Count),
			fmt.Sprintf("%.2f", u.NextCost),
			fmt.Sprintf("+%.2f", u.ProductionBonus),
			state,
		})
	}
	table.Render()
}

type projectionRow struct {
	ahead    float64
	produced float64
	status   planet.Status
}

func printProjection(w io.Writer, rows []projectionRow) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Ahead", "Balance", "Produced", "Rate/s", "Level", "Bonus"}),
	)
	for _, r := range rows {
		table.Append([]string{
			seconds(r.ahead).String(),
			fmt.Sprintf("%.2f", r.status.ResourceAmount),
			fmt.Sprintf("%.2f", r.produced),
			fmt.Sprintf("%.3f", r.status.EffectiveRate),
			fmt.Sprintf("%.2f", r.status.EnvironmentLevel),
			string(r.status.BonusPhase),
		})
	}
	table.Render()
}

func printEvents(w io.Writer, events []planet.DomainEvent) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"At", "Event", "Detail", "Balance"}),
	)
	for _, evt := range events {
		balance, _ := evt.Payload["balance"].(float64)
		table.Append([]string{
			evt.OccurredAt.Local().Format("2006-01-02 15:04:05"),
			evt.Type,
			eventDetail(evt),
			fmt.Sprintf("%.2f", balance),
		})
	}
	table.Render()
}

func eventDetail(evt planet.DomainEvent) string {
	p := evt.Payload
	switch planet.EventType(evt.Type) {
	case planet.EventProductionApplied:
		return fmt.Sprintf("+%.2f over %.0fs", p["amount"], p["elapsed_seconds"])
	case planet.EventClickProcessed:
		return fmt.Sprintf("+%.0f", p["amount"])
	case planet.EventUpgradePurchased:
		return fmt.Sprintf("%v #%v for %.2f", p["upgrade_id"], p["count"], p["cost"])
	case planet.EventBonusPhaseChanged:
		return fmt.Sprintf("%v → %v", p["from_phase"], p["to_phase"])
	case planet.EventEnvironmentPerturbed:
		return fmt.Sprintf("%+.2f to %.2f", p["amount"], p["level"])
	case planet.EventActionRejected:
		return fmt.Sprintf("%v: %v", p["action"], p["error_kind"])
	default:
		return ""
	}
}

func printCatalog(w io.Writer, defs []planet.UpgradeDefinition, levels int) {
	if levels < 1 {
		levels = 1
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Upgrade", "Name", "Bonus", "Unlock", "Cost ladder"}),
	)
	for _, def := range defs {
		ladder := make([]string, 0, levels)
		for n := 0; n < levels; n++ {
			ladder = append(ladder, fmt.Sprintf("%.2f", def.CostAt(n)))
		}
		table.Append([]string{
			def.ID,
			def.Name,
			fmt.Sprintf("+%.2f", def.ProductionBonus),
			unlockText(def.Unlock),
			strings.Join(ladder, " → "),
		})
	}
	table.Render()
}

func unlockText(u planet.UnlockCondition) string {
	parts := make([]string, 0, 2)
	if u.RequiresID != "" {
		parts = append(parts, fmt.Sprintf("%d× %s", max(u.RequiresCount, 1), u.RequiresID))
	}
	if u.MinEvents > 0 {
		parts = append(parts, fmt.Sprintf("%d env events", u.MinEvents))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
