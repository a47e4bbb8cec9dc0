package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"sourplanet/internal/app/ports"
	"sourplanet/internal/app/rearm"
	"sourplanet/internal/domain/planet"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newUseCase(states *stubStateRepo, events *stubEventRepo, metrics *stubMetrics, now time.Time) UseCase {
	return UseCase{
		TxManager: stubTxManager{},
		StateRepo: states,
		EventRepo: events,
		Metrics:   metrics,
		Config:    testConfig(),
		Now:       func() time.Time { return now },
		NewID:     sequentialIDs(),
	}
}

func TestUseCase_StartCreatesSession(t *testing.T) {
	states := newStubStateRepo()
	uc := newUseCase(states, &stubEventRepo{}, newStubMetrics(), t0)

	out, err := uc.Start(context.Background(), StartRequest{})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if out.State.PlayerID != "id-1" || out.State.Version != 1 {
		t.Fatalf("expected generated player id-1 at version 1, got %#v", out.State)
	}
	saved, ok := states.byPlayer["id-1"]
	if !ok || !saved.UpdatedAt.Equal(t0) {
		t.Fatalf("expected session saved at t0, got %#v", saved)
	}
	if out.Status.EnvironmentLevel != 4 || out.Status.ResourceAmount != 0 {
		t.Fatalf("unexpected initial status: %#v", out.Status)
	}

	if _, err := uc.Start(context.Background(), StartRequest{PlayerID: "id-1"}); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected ErrConflict for an existing player, got %v", err)
	}
}

func TestUseCase_SyncCatchesUpWallClock(t *testing.T) {
	states := newStubStateRepo(seededState("p1", planet.Snapshot{EnvironmentLevel: 4}, t0))
	events := &stubEventRepo{}
	metrics := newStubMetrics()
	uc := newUseCase(states, events, metrics, t0.Add(10*time.Second))

	out, err := uc.Execute(context.Background(), Request{PlayerID: "p1", Action: ActionSync})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if out.CaughtUpSeconds != 10 || out.Produced != 10 {
		t.Fatalf("expected 10 seconds producing 10, got %v/%v", out.CaughtUpSeconds, out.Produced)
	}
	saved := states.byPlayer["p1"]
	if saved.Version != 4 || saved.Snapshot.ResourceAmount != 10 || !saved.UpdatedAt.Equal(t0.Add(10*time.Second)) {
		t.Fatalf("unexpected saved state: %#v", saved)
	}
	applied := events.ofType(planet.EventProductionApplied)
	if len(applied) != 1 || applied[0].Payload["player_id"] != "p1" || applied[0].ID == "" {
		t.Fatalf("expected one production event tagged with player id, got %#v", events.events)
	}
	if metrics.success["sync"] != 1 {
		t.Fatalf("expected sync success recorded, got %#v", metrics.success)
	}
}

func TestUseCase_MaxCatchUpCapsOfflineTime(t *testing.T) {
	states := newStubStateRepo(seededState("p1", planet.Snapshot{EnvironmentLevel: 4}, t0))
	uc := newUseCase(states, &stubEventRepo{}, newStubMetrics(), t0.Add(48*time.Hour))
	uc.MaxCatchUp = time.Hour

	out, err := uc.Execute(context.Background(), Request{PlayerID: "p1", Action: ActionSync})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if out.CaughtUpSeconds != 3600 || states.byPlayer["p1"].Snapshot.ResourceAmount != 3600 {
		t.Fatalf("expected catch-up capped at one hour, got %v", out.CaughtUpSeconds)
	}
}

func TestUseCase_PurchaseAfterCatchUp(t *testing.T) {
	states := newStubStateRepo(seededState("p1", planet.Snapshot{ResourceAmount: 10, EnvironmentLevel: 4}, t0))
	events := &stubEventRepo{}
	uc := newUseCase(states, events, newStubMetrics(), t0.Add(5*time.Second))

	out, err := uc.Execute(context.Background(), Request{PlayerID: "p1", Action: ActionPurchase, UpgradeID: "lemon_grove"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if out.Cost != 15 || out.State.Snapshot.ResourceAmount != 0 {
		t.Fatalf("expected cost 15 leaving 0, got cost=%v balance=%v", out.Cost, out.State.Snapshot.ResourceAmount)
	}
	if out.State.Snapshot.UpgradeCounts["lemon_grove"] != 1 {
		t.Fatalf("expected one lemon grove, got %#v", out.State.Snapshot.UpgradeCounts)
	}
	purchased := events.ofType(planet.EventUpgradePurchased)
	if len(purchased) != 1 || purchased[0].Payload["action"] != "purchase" {
		t.Fatalf("expected purchase event tagged with action, got %#v", purchased)
	}
	if applied := events.ofType(planet.EventProductionApplied); applied[0].Payload["action"] != nil {
		t.Fatalf("expected catch-up event not to carry the action tag")
	}
}

func TestUseCase_RejectedPurchaseRollsBack(t *testing.T) {
	seed := seededState("p1", planet.Snapshot{ResourceAmount: 1, EnvironmentLevel: 4}, t0)
	states := newStubStateRepo(seed)
	events := &stubEventRepo{}
	metrics := newStubMetrics()
	uc := newUseCase(states, events, metrics, t0.Add(time.Second))

	_, err := uc.Execute(context.Background(), Request{PlayerID: "p1", Action: ActionPurchase, UpgradeID: "lemon_grove"})
	if !errors.Is(err, planet.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	var rejected *ActionRejectedError
	if !errors.As(err, &rejected) || rejected.Kind() != "insufficient_funds" {
		t.Fatalf("expected ActionRejectedError with kind, got %#v", err)
	}
	if states.byPlayer["p1"].Version != seed.Version || len(events.events) != 0 {
		t.Fatalf("expected nothing saved after rejection")
	}
	if metrics.rejected["insufficient_funds"] != 1 || metrics.failure != 0 {
		t.Fatalf("expected one rejection recorded, got %#v", metrics)
	}

	_, err = uc.Execute(context.Background(), Request{PlayerID: "p1", Action: ActionPurchase, UpgradeID: "acid_geyser"})
	if !errors.Is(err, planet.ErrLockedUpgrade) {
		t.Fatalf("expected ErrLockedUpgrade, got %v", err)
	}
}

func TestUseCase_ClickBatch(t *testing.T) {
	states := newStubStateRepo(seededState("p1", planet.Snapshot{EnvironmentLevel: 4}, t0))
	events := &stubEventRepo{}
	uc := newUseCase(states, events, newStubMetrics(), t0)

	out, err := uc.Execute(context.Background(), Request{PlayerID: "p1", Action: ActionClick, Clicks: 3})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if out.ClickGrant != 3 || out.State.Snapshot.TotalEvents != 3 {
		t.Fatalf("expected 3 clicks granting 3, got grant=%v events=%d", out.ClickGrant, out.State.Snapshot.TotalEvents)
	}
	if got := len(events.ofType(planet.EventClickProcessed)); got != 3 {
		t.Fatalf("expected 3 click events, got %d", got)
	}

	uc.ClicksDisabled = true
	out, err = uc.Execute(context.Background(), Request{PlayerID: "p1", Action: ActionClick})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if out.ClickGrant != 0 {
		t.Fatalf("expected disabled click to grant nothing, got %v", out.ClickGrant)
	}
}

func TestUseCase_ExpiryDuringCatchUpIsDatedAtExpiry(t *testing.T) {
	states := newStubStateRepo(seededState("p1", planet.Snapshot{
		EnvironmentLevel: 4,
		BonusPhase:       planet.BonusPhaseActive,
		BonusProgress:    0.5,
	}, t0))
	events := &stubEventRepo{}
	uc := newUseCase(states, events, newStubMetrics(), t0.Add(100*time.Second))

	if _, err := uc.Execute(context.Background(), Request{PlayerID: "p1", Action: ActionSync}); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	changed := events.ofType(planet.EventBonusPhaseChanged)
	if len(changed) != 1 {
		t.Fatalf("expected one phase change, got %#v", changed)
	}
	if want := t0.Add(25 * time.Second); !changed[0].OccurredAt.Equal(want) {
		t.Fatalf("expected expiry at %v, got %v", want, changed[0].OccurredAt)
	}
}

func TestUseCase_RearmPolicy(t *testing.T) {
	expired := planet.Snapshot{EnvironmentLevel: 4, BonusPhase: planet.BonusPhaseExpired}
	expiredEvt := planet.DomainEvent{
		Type:       string(planet.EventBonusPhaseChanged),
		OccurredAt: t0,
		Payload:    map[string]any{"from_phase": "active", "to_phase": "expired"},
	}

	t.Run("manual leaves expired bonus alone", func(t *testing.T) {
		states := newStubStateRepo(seededState("p1", expired, t0))
		uc := newUseCase(states, &stubEventRepo{events: []planet.DomainEvent{expiredEvt}}, newStubMetrics(), t0.Add(time.Hour))
		uc.Rearm = rearm.Policy{Mode: rearm.ModeManual}
		if _, err := uc.Execute(context.Background(), Request{PlayerID: "p1", Action: ActionStartBonus}); !errors.Is(err, planet.ErrNotEligible) {
			t.Fatalf("expected ErrNotEligible, got %v", err)
		}
	})

	t.Run("after delay re-arms before the action", func(t *testing.T) {
		states := newStubStateRepo(seededState("p1", expired, t0))
		events := &stubEventRepo{events: []planet.DomainEvent{expiredEvt}}
		uc := newUseCase(states, events, newStubMetrics(), t0.Add(time.Minute))
		uc.Rearm = rearm.Policy{Mode: rearm.ModeAfter, Delay: 30 * time.Second}

		out, err := uc.Execute(context.Background(), Request{PlayerID: "p1", Action: ActionStartBonus})
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		if out.State.Snapshot.BonusPhase != planet.BonusPhaseActive {
			t.Fatalf("expected active bonus, got %s", out.State.Snapshot.BonusPhase)
		}
		changed := events.ofType(planet.EventBonusPhaseChanged)
		if len(changed) != 3 || changed[1].Payload["to_phase"] != "idle" || changed[2].Payload["to_phase"] != "active" {
			t.Fatalf("expected expired->idle->active, got %#v", changed)
		}
	})

	t.Run("after delay not yet due", func(t *testing.T) {
		states := newStubStateRepo(seededState("p1", expired, t0))
		uc := newUseCase(states, &stubEventRepo{events: []planet.DomainEvent{expiredEvt}}, newStubMetrics(), t0.Add(10*time.Second))
		uc.Rearm = rearm.Policy{Mode: rearm.ModeAfter, Delay: 30 * time.Second}
		if _, err := uc.Execute(context.Background(), Request{PlayerID: "p1", Action: ActionRearmBonus}); err != nil {
			t.Fatalf("expected manual re-arm to stay available, got %v", err)
		}
	})
}

func TestUseCase_ConflictIsRecorded(t *testing.T) {
	states := newStubStateRepo(seededState("p1", planet.Snapshot{EnvironmentLevel: 4}, t0))
	metrics := newStubMetrics()
	uc := newUseCase(states, &stubEventRepo{}, metrics, t0)
	uc.StateRepo = conflictOnSaveStateRepo{states}

	if _, err := uc.Execute(context.Background(), Request{PlayerID: "p1", Action: ActionSync}); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if metrics.conflict != 1 {
		t.Fatalf("expected conflict recorded, got %d", metrics.conflict)
	}
}

func TestUseCase_RejectsInvalidRequests(t *testing.T) {
	uc := newUseCase(newStubStateRepo(), &stubEventRepo{}, newStubMetrics(), t0)
	cases := []struct {
		req  Request
		want error
	}{
		{req: Request{Action: ActionSync}, want: ErrInvalidRequest},
		{req: Request{PlayerID: "p1", Action: "dance"}, want: ErrUnsupportedAction},
		{req: Request{PlayerID: "p1", Action: ActionPurchase}, want: ErrInvalidRequest},
		{req: Request{PlayerID: "p1", Action: ActionClick, Clicks: MaxClicksPerRequest + 1}, want: ErrInvalidRequest},
		{req: Request{PlayerID: "missing", Action: ActionSync}, want: ports.ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := uc.Execute(context.Background(), tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("request %#v: expected %v, got %v", tc.req, tc.want, err)
		}
	}
}
