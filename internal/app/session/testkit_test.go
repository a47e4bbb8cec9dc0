package session

import (
	"context"
	"fmt"
	"time"

	"sourplanet/internal/app/ports"
	"sourplanet/internal/domain/planet"
)

type stubTxManager struct{}

func (stubTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubStateRepo struct {
	byPlayer map[string]planet.SessionState
}

func newStubStateRepo(states ...planet.SessionState) *stubStateRepo {
	r := &stubStateRepo{byPlayer: map[string]planet.SessionState{}}
	for _, s := range states {
		r.byPlayer[s.PlayerID] = s
	}
	return r
}

func (r *stubStateRepo) GetByPlayerID(_ context.Context, playerID string) (planet.SessionState, error) {
	state, ok := r.byPlayer[playerID]
	if !ok {
		return planet.SessionState{}, ports.ErrNotFound
	}
	return state, nil
}

func (r *stubStateRepo) SaveWithVersion(_ context.Context, state planet.SessionState, expectedVersion int64) error {
	current, ok := r.byPlayer[state.PlayerID]
	if !ok {
		if expectedVersion != 0 {
			return ports.ErrConflict
		}
		r.byPlayer[state.PlayerID] = state
		return nil
	}
	if current.Version != expectedVersion {
		return ports.ErrConflict
	}
	r.byPlayer[state.PlayerID] = state
	return nil
}

type conflictOnSaveStateRepo struct {
	*stubStateRepo
}

func (r conflictOnSaveStateRepo) SaveWithVersion(_ context.Context, _ planet.SessionState, _ int64) error {
	return ports.ErrConflict
}

type stubEventRepo struct {
	events []planet.DomainEvent
}

func (r *stubEventRepo) Append(_ context.Context, _ string, events []planet.DomainEvent) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *stubEventRepo) ListByPlayerID(_ context.Context, _ string, limit int) ([]planet.DomainEvent, error) {
	if len(r.events) == 0 {
		return nil, ports.ErrNotFound
	}
	out := make([]planet.DomainEvent, 0, len(r.events))
	for i := len(r.events) - 1; i >= 0; i-- {
		out = append(out, r.events[i])
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubEventRepo) ofType(eventType planet.EventType) []planet.DomainEvent {
	var out []planet.DomainEvent
	for _, evt := range r.events {
		if evt.Type == string(eventType) {
			out = append(out, evt)
		}
	}
	return out
}

type stubMetrics struct {
	success  map[string]int
	rejected map[string]int
	conflict int
	failure  int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{success: map[string]int{}, rejected: map[string]int{}}
}

func (m *stubMetrics) RecordSuccess(action string) { m.success[action]++ }
func (m *stubMetrics) RecordRejected(kind string)  { m.rejected[kind]++ }
func (m *stubMetrics) RecordConflict()             { m.conflict++ }
func (m *stubMetrics) RecordFailure()              { m.failure++ }

// testConfig keeps the environment fixed inside the optimal range so production is a
// constant 1/s before upgrades.
func testConfig() planet.Config {
	cfg := planet.DefaultConfig()
	cfg.Environment.StartLevel = 4
	cfg.Environment.DriftRate = 0
	return cfg
}

func seededState(playerID string, s planet.Snapshot, updatedAt time.Time) planet.SessionState {
	return planet.SessionState{
		PlayerID:  playerID,
		Snapshot:  s,
		Version:   3,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var (
	_ ports.PlanetStateRepository = (*stubStateRepo)(nil)
	_ ports.EventRepository       = (*stubEventRepo)(nil)
	_ ports.ActionMetrics         = (*stubMetrics)(nil)
)
