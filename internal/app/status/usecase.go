package status

import (
	"context"
	"errors"
	"strings"
	"time"

	"sourplanet/internal/app/ports"
	"sourplanet/internal/app/rearm"
	"sourplanet/internal/app/shared/catchup"
	"sourplanet/internal/domain/planet"
)

var ErrInvalidRequest = errors.New("invalid status request")

// UseCase projects the stored session to now without saving anything.
type UseCase struct {
	StateRepo  ports.PlanetStateRepository
	EventRepo  ports.EventRepository
	Config     planet.Config
	Rearm      rearm.Policy
	MaxCatchUp time.Duration
	Now        func() time.Time
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	playerID := strings.TrimSpace(req.PlayerID)
	if playerID == "" {
		return Response{}, ErrInvalidRequest
	}
	state, err := u.StateRepo.GetByPlayerID(ctx, playerID)
	if err != nil {
		return Response{}, err
	}
	now := time.Now()
	if u.Now != nil {
		now = u.Now()
	}

	pending := catchup.ElapsedSeconds(state.UpdatedAt, now, u.MaxCatchUp)
	projected, produced, err := planet.Project(u.Config, state.Snapshot, pending)
	if err != nil {
		return Response{}, err
	}
	out := Response{
		PlayerID:        playerID,
		Version:         state.Version,
		Status:          projected,
		PendingSeconds:  pending,
		PendingProduced: produced,
	}

	if u.EventRepo != nil && u.Rearm.Mode == rearm.ModeAfter && projected.BonusPhase == planet.BonusPhaseExpired {
		events, err := u.EventRepo.ListByPlayerID(ctx, playerID, 200)
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return Response{}, err
		}
		if remaining, ok := u.Rearm.RemainingSeconds(projected.BonusPhase, events, now); ok {
			out.RearmInSeconds = remaining
		}
	}
	return out, nil
}
