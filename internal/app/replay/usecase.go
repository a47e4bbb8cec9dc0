package replay

import (
	"context"
	"errors"
	"strings"

	"sourplanet/internal/app/ports"
	"sourplanet/internal/domain/planet"
)

var ErrInvalidRequest = errors.New("invalid replay request")

const (
	defaultLimit = 50
	maxLimit     = 500
)

type UseCase struct {
	Events ports.EventRepository
}

// Execute lists the player's events newest first and summarises them.
func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.PlayerID) == "" {
		return Response{}, ErrInvalidRequest
	}
	if req.OccurredFrom > 0 && req.OccurredTo > 0 && req.OccurredFrom > req.OccurredTo {
		return Response{}, ErrInvalidRequest
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	events, err := u.Events.ListByPlayerID(ctx, strings.TrimSpace(req.PlayerID), limit)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return Response{Events: []planet.DomainEvent{}, Summary: summarize(nil)}, nil
		}
		return Response{}, err
	}
	events = filterByTimeWindow(events, req.OccurredFrom, req.OccurredTo)
	return Response{Events: events, Summary: summarize(events)}, nil
}

func filterByTimeWindow(events []planet.DomainEvent, from, to int64) []planet.DomainEvent {
	if from <= 0 && to <= 0 {
		return events
	}
	out := make([]planet.DomainEvent, 0, len(events))
	for _, evt := range events {
		ts := evt.OccurredAt.Unix()
		if from > 0 && ts < from {
			continue
		}
		if to > 0 && ts > to {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// summarize walks newest-first events in reverse so that the latest values win.
func summarize(events []planet.DomainEvent) Summary {
	s := Summary{Purchases: map[string]int{}, Rejections: map[string]int{}}
	for i := len(events) - 1; i >= 0; i-- {
		evt := events[i]
		if balance, ok := evt.Payload["balance"]; ok {
			s.LatestBalance = num(balance)
		}
		switch planet.EventType(evt.Type) {
		case planet.EventProductionApplied:
			s.Produced += num(evt.Payload["amount"])
		case planet.EventClickProcessed:
			s.ClickGranted += num(evt.Payload["amount"])
		case planet.EventUpgradePurchased:
			id, _ := evt.Payload["upgrade_id"].(string)
			s.Purchases[id]++
			s.Spent += num(evt.Payload["cost"])
		case planet.EventActionRejected:
			kind, _ := evt.Payload["error_kind"].(string)
			s.Rejections[kind]++
		case planet.EventBonusPhaseChanged:
			to, _ := evt.Payload["to_phase"].(string)
			s.LatestBonusPhase = planet.BonusPhase(to)
		case planet.EventEnvironmentPerturbed:
			s.LatestLevel = num(evt.Payload["level"])
		}
	}
	return s
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
