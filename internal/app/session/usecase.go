package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sourplanet/internal/app/ports"
	"sourplanet/internal/app/rearm"
	"sourplanet/internal/app/shared/catchup"
	"sourplanet/internal/domain/planet"
)

// rearmLookback is how many logged events are scanned for the latest bonus expiry.
const rearmLookback = 200

type UseCase struct {
	TxManager      ports.TxManager
	StateRepo      ports.PlanetStateRepository
	EventRepo      ports.EventRepository
	Metrics        ports.ActionMetrics
	Config         planet.Config
	Rearm          rearm.Policy
	MaxCatchUp     time.Duration
	ClicksDisabled bool
	Logger         *slog.Logger
	Now            func() time.Time
	NewID          func() string
}

func (u UseCase) Start(ctx context.Context, req StartRequest) (StartResponse, error) {
	playerID := strings.TrimSpace(req.PlayerID)
	if playerID == "" {
		playerID = u.newID()
	}
	state, err := planet.NewSessionState(playerID, u.Config, u.now())
	if err != nil {
		return StartResponse{}, err
	}
	engine, err := u.engineFor(state.Snapshot)
	if err != nil {
		return StartResponse{}, err
	}

	err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		return u.StateRepo.SaveWithVersion(txCtx, state, 0)
	})
	if err != nil {
		if errors.Is(err, ports.ErrConflict) && u.Metrics != nil {
			u.Metrics.RecordConflict()
		}
		return StartResponse{}, err
	}
	u.logger().Info("session started", "player_id", playerID)
	return StartResponse{State: state, Status: engine.Status()}, nil
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	req.UpgradeID = strings.TrimSpace(req.UpgradeID)
	req.Action = ActionType(strings.TrimSpace(string(req.Action)))
	if req.PlayerID == "" {
		return Response{}, ErrInvalidRequest
	}
	if !isSupportedAction(req.Action) {
		return Response{}, ErrUnsupportedAction
	}
	if req.Action == ActionPurchase && req.UpgradeID == "" {
		return Response{}, ErrInvalidRequest
	}
	if req.Action == ActionClick {
		if req.Clicks == 0 {
			req.Clicks = 1
		}
		if req.Clicks < 0 || req.Clicks > MaxClicksPerRequest {
			return Response{}, ErrInvalidRequest
		}
	}

	var out Response
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		state, err := u.StateRepo.GetByPlayerID(txCtx, req.PlayerID)
		if err != nil {
			return err
		}
		engine, err := u.engineFor(state.Snapshot)
		if err != nil {
			return err
		}
		now := u.now()

		var emitted []planet.Event
		unsubscribe := engine.Subscribe(func(evt planet.Event) { emitted = append(emitted, evt) })
		defer unsubscribe()

		elapsed := catchup.ElapsedSeconds(state.UpdatedAt, now, u.MaxCatchUp)
		expiresIn := -1.0
		if _, active := engine.BonusState().(planet.BonusActive); active {
			expiresIn = engine.Status().BonusRemainingSeconds
		}
		produced, err := engine.CatchUp(elapsed)
		if err != nil {
			return err
		}
		caughtUp := len(emitted)

		if err := u.applyRearmPolicy(txCtx, req.PlayerID, engine, stamp(emitted, state.UpdatedAt, now, expiresIn), now); err != nil {
			return err
		}

		result, err := u.apply(engine, req)
		if err != nil {
			return &ActionRejectedError{Action: req.Action, Err: err}
		}

		next := state
		next.Snapshot = engine.Snapshot()
		next.Version = state.Version + 1
		next.UpdatedAt = now
		if err := u.StateRepo.SaveWithVersion(txCtx, next, state.Version); err != nil {
			return err
		}

		events := stamp(emitted, state.UpdatedAt, now, expiresIn)
		for i := range events {
			events[i].ID = u.newID()
			events[i].Payload["player_id"] = req.PlayerID
			if i >= caughtUp {
				events[i].Payload["action"] = string(req.Action)
			}
		}
		if err := u.EventRepo.Append(txCtx, req.PlayerID, events); err != nil {
			return err
		}

		out = Response{
			State:           next,
			Status:          engine.Status(),
			Events:          events,
			CaughtUpSeconds: elapsed,
			Produced:        produced,
			ClickGrant:      result.grant,
			Cost:            result.cost,
			SettledAt:       now,
		}
		return nil
	})
	if err != nil {
		u.recordFailure(req, err)
		return Response{}, err
	}
	if u.Metrics != nil {
		u.Metrics.RecordSuccess(string(req.Action))
	}
	u.logger().Debug("action settled",
		"player_id", req.PlayerID,
		"action", req.Action,
		"caught_up_seconds", out.CaughtUpSeconds,
		"balance", out.State.Snapshot.ResourceAmount,
		"version", out.State.Version,
	)
	return out, nil
}

type actionResult struct {
	grant float64
	cost  float64
}

func (u UseCase) apply(engine *planet.Engine, req Request) (actionResult, error) {
	switch req.Action {
	case ActionClick:
		var grant float64
		for i := 0; i < req.Clicks; i++ {
			grant += engine.Click()
		}
		return actionResult{grant: grant}, nil
	case ActionPurchase:
		cost, err := engine.Purchase(req.UpgradeID)
		return actionResult{cost: cost}, err
	case ActionStartBonus:
		return actionResult{}, engine.StartBonus()
	case ActionRearmBonus:
		return actionResult{}, engine.RearmBonus()
	default:
		return actionResult{}, nil
	}
}

func (u UseCase) applyRearmPolicy(ctx context.Context, playerID string, engine *planet.Engine, current []planet.DomainEvent, now time.Time) error {
	phase := engine.BonusState().Phase()
	if u.Rearm.Mode != rearm.ModeAfter || phase != planet.BonusPhaseExpired {
		return nil
	}
	logged, err := u.EventRepo.ListByPlayerID(ctx, playerID, rearmLookback)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return err
	}
	if !u.Rearm.Due(phase, append(logged, current...), now) {
		return nil
	}
	return engine.RearmBonus()
}

func (u UseCase) recordFailure(req Request, err error) {
	var rejected *ActionRejectedError
	switch {
	case errors.As(err, &rejected):
		if u.Metrics != nil {
			u.Metrics.RecordRejected(rejected.Kind())
		}
		u.logger().Info("action rejected", "player_id", req.PlayerID, "action", req.Action, "kind", rejected.Kind())
	case errors.Is(err, ports.ErrConflict):
		if u.Metrics != nil {
			u.Metrics.RecordConflict()
		}
		u.logger().Warn("version conflict", "player_id", req.PlayerID, "action", req.Action)
	case errors.Is(err, ports.ErrNotFound):
		if u.Metrics != nil {
			u.Metrics.RecordFailure()
		}
	default:
		if u.Metrics != nil {
			u.Metrics.RecordFailure()
		}
		u.logger().Error("action failed", "player_id", req.PlayerID, "action", req.Action, "error", err)
	}
}

func (u UseCase) engineFor(s planet.Snapshot) (*planet.Engine, error) {
	engine, err := planet.NewEngine(u.Config)
	if err != nil {
		return nil, err
	}
	if err := engine.Load(s); err != nil {
		return nil, err
	}
	engine.SetClicksDisabled(u.ClicksDisabled)
	return engine, nil
}

// stamp converts engine events into log entries. A bonus expiry that happened during catch-up
// is dated at the moment it expired rather than at now.
func stamp(events []planet.Event, updatedAt, now time.Time, expiresIn float64) []planet.DomainEvent {
	out := make([]planet.DomainEvent, 0, len(events))
	for _, evt := range events {
		at := now
		if evt.Type == planet.EventBonusPhaseChanged && evt.ToPhase == planet.BonusPhaseExpired && expiresIn >= 0 {
			if expiredAt := updatedAt.Add(time.Duration(expiresIn * float64(time.Second))); expiredAt.Before(now) {
				at = expiredAt
			}
		}
		out = append(out, planet.DomainEvent{
			Type:       string(evt.Type),
			OccurredAt: at,
			Payload:    evt.Payload(),
		})
	}
	return out
}

func isSupportedAction(a ActionType) bool {
	switch a {
	case ActionSync, ActionClick, ActionPurchase, ActionStartBonus, ActionRearmBonus:
		return true
	default:
		return false
	}
}

func (u UseCase) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func (u UseCase) newID() string {
	if u.NewID != nil {
		return u.NewID()
	}
	return uuid.NewString()
}

func (u UseCase) logger() *slog.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return slog.Default()
}
