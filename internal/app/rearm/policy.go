package rearm

import (
	"fmt"
	"strings"
	"time"

	"sourplanet/internal/domain/planet"
)

type Mode string

const (
	ModeManual Mode = "manual"
	ModeAfter  Mode = "after"
)

// Policy decides when an expired bonus goes back to idle. Manual leaves it to the player's
// rearm_bonus action; After re-arms automatically once Delay has passed since expiry.
type Policy struct {
	Mode  Mode
	Delay time.Duration
}

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.TrimSpace(strings.ToLower(raw))) {
	case "", ModeManual:
		return ModeManual, nil
	case ModeAfter:
		return ModeAfter, nil
	default:
		return "", fmt.Errorf("unknown rearm mode %q", raw)
	}
}

// RemainingSeconds returns the whole seconds left until an automatic re-arm, rounded up.
// ok is false when no automatic re-arm is pending.
func (p Policy) RemainingSeconds(phase planet.BonusPhase, events []planet.DomainEvent, now time.Time) (int, bool) {
	if p.Mode != ModeAfter || phase != planet.BonusPhaseExpired {
		return 0, false
	}
	expiredAt := LatestExpiryAt(events)
	if expiredAt.IsZero() {
		return 0, false
	}
	remaining := p.Delay - now.Sub(expiredAt)
	if remaining <= 0 {
		return 0, false
	}
	return int((remaining + time.Second - 1) / time.Second), true
}

// Due reports whether an expired bonus should be re-armed at now. An expiry missing from the
// event log counts as long past.
func (p Policy) Due(phase planet.BonusPhase, events []planet.DomainEvent, now time.Time) bool {
	if p.Mode != ModeAfter || phase != planet.BonusPhaseExpired {
		return false
	}
	expiredAt := LatestExpiryAt(events)
	if expiredAt.IsZero() {
		return true
	}
	return now.Sub(expiredAt) >= p.Delay
}

func LatestExpiryAt(events []planet.DomainEvent) time.Time {
	lastAt := time.Time{}
	for _, evt := range events {
		if evt.Type != string(planet.EventBonusPhaseChanged) || evt.Payload == nil {
			continue
		}
		to, _ := evt.Payload["to_phase"].(string)
		if to != string(planet.BonusPhaseExpired) {
			continue
		}
		if evt.OccurredAt.After(lastAt) {
			lastAt = evt.OccurredAt
		}
	}
	return lastAt
}
