package planet

import (
	"errors"
	"testing"
)

func TestNewEngine_RejectsInvalidConfiguration(t *testing.T) {
	cases := map[string]func(*Config){
		"zero bonus duration":   func(c *Config) { c.Bonus.DurationSeconds = 0 },
		"cost multiplier of 1":  func(c *Config) { c.Upgrades[0].CostMultiplier = 1 },
		"inverted bounds":       func(c *Config) { c.Environment.Min, c.Environment.Max = 10, 2 },
		"inverted optimal":      func(c *Config) { c.Environment.OptimalLow, c.Environment.OptimalHigh = 5, 3 },
		"duplicate upgrade ids": func(c *Config) { c.Upgrades = append(c.Upgrades, c.Upgrades[0]) },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if _, err := NewEngine(cfg); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("%s: expected ErrInvalidConfiguration, got %v", name, err)
		}
	}
	if _, err := NewEngine(DefaultConfig()); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestEngine_TickRejectsNegativeDelta(t *testing.T) {
	engine, _ := NewEngine(DefaultConfig())
	if _, err := engine.Tick(-1); !errors.Is(err, ErrInvalidDelta) {
		t.Fatalf("expected ErrInvalidDelta, got %v", err)
	}
}

func TestEngine_EmitsEventsInMutationOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Environment.StartLevel = 4
	cfg.Environment.DriftRate = 0
	cfg.Bonus.DurationSeconds = 5
	engine, _ := NewEngine(cfg)
	_ = engine.Load(Snapshot{ResourceAmount: 20, EnvironmentLevel: 4})

	var got []EventType
	engine.Subscribe(func(e Event) { got = append(got, e.Type) })

	if _, err := engine.Purchase("lemon_grove"); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := engine.Purchase("lemon_grove"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := engine.StartBonus(); err != nil {
		t.Fatalf("start bonus: %v", err)
	}
	if _, err := engine.Tick(10); err != nil {
		t.Fatalf("tick: %v", err)
	}
	engine.Click()

	want := []EventType{
		EventUpgradePurchased,
		EventActionRejected,
		EventBonusPhaseChanged,
		EventProductionApplied,
		EventBonusPhaseChanged,
		EventClickProcessed,
		EventEnvironmentPerturbed,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s (all: %v)", i, want[i], got[i], got)
		}
	}
}

func TestEngine_RejectedActionCarriesErrorKind(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Environment.StartLevel = 10
	engine, _ := NewEngine(cfg)
	var last Event
	engine.Subscribe(func(e Event) { last = e })

	if err := engine.StartBonus(); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible outside optimal range, got %v", err)
	}
	if last.Type != EventActionRejected || last.ErrorKind != "not_eligible" || last.Action != "start_bonus" {
		t.Fatalf("unexpected rejection event: %#v", last)
	}
	if engine.BonusState().Phase() != BonusPhaseIdle {
		t.Fatalf("expected bonus to stay idle")
	}

	if _, err := engine.Purchase("citric_refinery"); !errors.Is(err, ErrLockedUpgrade) {
		t.Fatalf("expected ErrLockedUpgrade, got %v", err)
	}
	if last.ErrorKind != "locked_upgrade" || last.UpgradeID != "citric_refinery" {
		t.Fatalf("unexpected rejection event: %#v", last)
	}
}

func TestEngine_ClickUsesModifierThenPerturbs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClickPower = 5
	cfg.Environment.StartLevel = 4
	cfg.Environment.ClickPerturbation = 0.5
	engine, _ := NewEngine(cfg)

	if grant := engine.Click(); grant != 5 {
		t.Fatalf("expected grant 5 at optimal level, got %v", grant)
	}
	if engine.Level() != 4.5 {
		t.Fatalf("expected level 4.5 after click, got %v", engine.Level())
	}
	if engine.Snapshot().TotalEvents != 1 {
		t.Fatalf("expected one environment event, got %d", engine.Snapshot().TotalEvents)
	}

	engine.SetClicksDisabled(true)
	if grant := engine.Click(); grant != 0 {
		t.Fatalf("expected zero grant while disabled, got %v", grant)
	}
	if engine.Balance() != 5 || engine.Snapshot().TotalEvents != 1 {
		t.Fatalf("expected disabled click to change nothing")
	}
}

func TestEngine_Unsubscribe(t *testing.T) {
	engine, _ := NewEngine(DefaultConfig())
	calls := 0
	unsubscribe := engine.Subscribe(func(Event) { calls++ })
	engine.Click()
	unsubscribe()
	engine.Click()
	if calls != 2 {
		t.Fatalf("expected 2 calls before unsubscribe, got %d", calls)
	}
}

func TestEngine_LoadSnapshotRoundTrip(t *testing.T) {
	engine, _ := NewEngine(DefaultConfig())
	want := Snapshot{
		ResourceAmount:   321.5,
		EnvironmentLevel: 4.25,
		TotalEvents:      12,
		BonusPhase:       BonusPhaseActive,
		BonusProgress:    0.5,
		UpgradeCounts:    map[string]int{"lemon_grove": 4, "vinegar_vat": 1},
	}
	if err := engine.Load(want); err != nil {
		t.Fatalf("load: %v", err)
	}
	got := engine.Snapshot()
	if got.ResourceAmount != want.ResourceAmount || got.EnvironmentLevel != want.EnvironmentLevel ||
		got.TotalEvents != want.TotalEvents || got.BonusPhase != want.BonusPhase || got.BonusProgress != want.BonusProgress {
		t.Fatalf("snapshot mismatch: got %#v want %#v", got, want)
	}
	if got.UpgradeCounts["lemon_grove"] != 4 || got.UpgradeCounts["vinegar_vat"] != 1 {
		t.Fatalf("upgrade counts mismatch: %#v", got.UpgradeCounts)
	}
	if bonus := engine.Status().BonusModifier; bonus != 0.25 {
		t.Fatalf("expected bonus modifier 0.25, got %v", bonus)
	}
}

func TestEngine_LoadRejectsInvalidSnapshotWithoutChanges(t *testing.T) {
	engine, _ := NewEngine(DefaultConfig())
	_ = engine.Load(Snapshot{ResourceAmount: 10, EnvironmentLevel: 4})

	bad := []Snapshot{
		{ResourceAmount: -1},
		{BonusPhase: "paused"},
		{BonusPhase: BonusPhaseActive, BonusProgress: 2},
		{UpgradeCounts: map[string]int{"ghost": 1}},
		{TotalEvents: -3},
	}
	for i, s := range bad {
		if err := engine.Load(s); !errors.Is(err, ErrInvalidSnapshot) {
			t.Fatalf("case %d: expected ErrInvalidSnapshot, got %v", i, err)
		}
	}
	if engine.Balance() != 10 || engine.Level() != 4 {
		t.Fatalf("expected state unchanged, got balance %v level %v", engine.Balance(), engine.Level())
	}
}

func TestEngine_StatusListsUpgrades(t *testing.T) {
	engine, _ := NewEngine(DefaultConfig())
	_ = engine.Load(Snapshot{ResourceAmount: 20, EnvironmentLevel: 4})
	status := engine.Status()
	if len(status.Upgrades) != len(DefaultUpgrades()) {
		t.Fatalf("expected %d upgrades, got %d", len(DefaultUpgrades()), len(status.Upgrades))
	}
	grove := status.Upgrades[0]
	if grove.ID != "lemon_grove" || !grove.Unlocked || !grove.Affordable {
		t.Fatalf("expected lemon grove unlocked and affordable, got %#v", grove)
	}
	if status.Upgrades[2].Unlocked {
		t.Fatalf("expected citric refinery to be locked")
	}
	if !status.InOptimalRange || status.EnvironmentModifier != 1 {
		t.Fatalf("expected optimal environment, got %#v", status)
	}
}

func TestProject(t *testing.T) {
	cfg := scenarioConfig()
	status, produced, err := Project(cfg, Snapshot{EnvironmentLevel: 4, UpgradeCounts: map[string]int{"boost": 1}}, 10)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if produced != 150 || status.ResourceAmount != 150 {
		t.Fatalf("expected 150, got produced=%v amount=%v", produced, status.ResourceAmount)
	}
}

func TestErrorKind(t *testing.T) {
	if got := ErrorKind(ErrInsufficientFunds); got != "insufficient_funds" {
		t.Fatalf("unexpected kind %q", got)
	}
	if got := ErrorKind(errors.New("other")); got != "unknown" {
		t.Fatalf("unexpected kind %q", got)
	}
}
