package planet

import (
	"fmt"
	"math"
)

// Engine is the single simulation context. It is not safe for concurrent use: callers serialise
// ticks and actions, and each call runs to completion before the next.
type Engine struct {
	cfg            Config
	ledger         Ledger
	env            *Environment
	bonus          *BonusTimer
	catalog        *Catalog
	clicksDisabled bool

	listeners   []listenerEntry
	listenerSeq int
}

type listenerEntry struct {
	key int
	fn  Listener
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:     cfg,
		env:     NewEnvironment(cfg.Environment),
		bonus:   NewBonusTimer(cfg.Bonus),
		catalog: NewCatalog(cfg.Upgrades),
	}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Subscribe registers a listener and returns a function that removes it.
func (e *Engine) Subscribe(l Listener) func() {
	if l == nil {
		return func() {}
	}
	e.listenerSeq++
	key := e.listenerSeq
	e.listeners = append(e.listeners, listenerEntry{key: key, fn: l})
	return func() {
		kept := make([]listenerEntry, 0, len(e.listeners))
		for _, entry := range e.listeners {
			if entry.key != key {
				kept = append(kept, entry)
			}
		}
		e.listeners = kept
	}
}

func (e *Engine) emit(evt Event) {
	evt.Balance = e.ledger.Balance()
	for _, entry := range e.listeners {
		entry.fn(evt)
	}
}

// Tick advances the simulation by dt seconds in one closed-form step and returns the amount
// credited.
func (e *Engine) Tick(dt float64) (float64, error) {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return 0, ErrInvalidDelta
	}
	if dt == 0 {
		return 0, nil
	}

	produced := integrateProduction(e.cfg.BaseRate, e.catalog.BonusSum(), e.env, e.bonus, dt)
	e.env.Advance(dt)
	e.ledger.Credit(produced)
	e.emit(Event{Type: EventProductionApplied, ElapsedSeconds: dt, Amount: produced})

	if e.bonus.Advance(dt) {
		e.emit(Event{Type: EventBonusPhaseChanged, FromPhase: BonusPhaseActive, ToPhase: BonusPhaseExpired})
	}
	return produced, nil
}

// CatchUp replays offline time. It is the same closed form as Tick, so its cost does not grow
// with the length of the absence.
func (e *Engine) CatchUp(elapsedSeconds float64) (float64, error) {
	return e.Tick(elapsedSeconds)
}

// Click credits the ledger for one user action and then applies the click perturbation to the
// environment. A disabled click returns zero and changes nothing.
func (e *Engine) Click() float64 {
	if e.clicksDisabled {
		return 0
	}
	grant := ProcessClick(&e.ledger, e.cfg.ClickPower, e.env.Modifier(), false)
	e.emit(Event{Type: EventClickProcessed, Amount: grant})
	e.PerturbEnvironment(e.cfg.Environment.ClickPerturbation)
	return grant
}

func (e *Engine) SetClicksDisabled(disabled bool) {
	e.clicksDisabled = disabled
}

// PerturbEnvironment applies a discrete signed change to the environment level.
func (e *Engine) PerturbEnvironment(delta float64) bool {
	if !e.env.Perturb(delta) {
		return false
	}
	e.emit(Event{Type: EventEnvironmentPerturbed, Amount: delta, Level: e.env.Level()})
	return true
}

func (e *Engine) Purchase(id string) (float64, error) {
	cost, err := e.catalog.Purchase(id, &e.ledger, e.env.TotalEvents())
	if err != nil {
		e.reject("purchase", id, err)
		return 0, err
	}
	e.emit(Event{Type: EventUpgradePurchased, UpgradeID: id, Cost: cost, Count: e.catalog.Count(id)})
	return cost, nil
}

func (e *Engine) StartBonus() error {
	if err := e.bonus.Start(e.env.InOptimalRange()); err != nil {
		e.reject("start_bonus", "", err)
		return err
	}
	e.emit(Event{Type: EventBonusPhaseChanged, FromPhase: BonusPhaseIdle, ToPhase: BonusPhaseActive})
	return nil
}

// RearmBonus returns an expired bonus to idle. Whether and when to call it is the caller's policy.
func (e *Engine) RearmBonus() error {
	if err := e.bonus.Rearm(); err != nil {
		e.reject("rearm_bonus", "", err)
		return err
	}
	e.emit(Event{Type: EventBonusPhaseChanged, FromPhase: BonusPhaseExpired, ToPhase: BonusPhaseIdle})
	return nil
}

func (e *Engine) reject(action, upgradeID string, err error) {
	e.emit(Event{Type: EventActionRejected, Action: action, UpgradeID: upgradeID, ErrorKind: ErrorKind(err)})
}

func (e *Engine) Balance() float64 {
	return e.ledger.Balance()
}

func (e *Engine) Level() float64 {
	return e.env.Level()
}

func (e *Engine) BonusState() BonusState {
	return e.bonus.State()
}

func (e *Engine) EffectiveRate() float64 {
	return ComputeRate(e.cfg.BaseRate, e.catalog.BonusSum(), e.env.Modifier(), e.bonus.Modifier())
}

func (e *Engine) NextCost(id string) (float64, error) {
	return e.catalog.NextCost(id)
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		ResourceAmount:   e.ledger.Balance(),
		EnvironmentLevel: e.env.Level(),
		TotalEvents:      e.env.TotalEvents(),
		BonusPhase:       e.bonus.Phase(),
		BonusProgress:    e.bonus.Progress(),
		UpgradeCounts:    e.catalog.Counts(),
	}
}

// Load replaces the engine state with s. On error the engine is unchanged.
func (e *Engine) Load(s Snapshot) error {
	if !finite(s.ResourceAmount) || s.ResourceAmount < 0 {
		return fmt.Errorf("%w: resource amount %v", ErrInvalidSnapshot, s.ResourceAmount)
	}
	if !finite(s.EnvironmentLevel) {
		return fmt.Errorf("%w: environment level %v", ErrInvalidSnapshot, s.EnvironmentLevel)
	}
	if s.TotalEvents < 0 {
		return fmt.Errorf("%w: total events %d", ErrInvalidSnapshot, s.TotalEvents)
	}
	state, ok := bonusStateFrom(s.BonusPhase, s.BonusProgress)
	if !ok {
		return fmt.Errorf("%w: bonus %s at %v", ErrInvalidSnapshot, s.BonusPhase, s.BonusProgress)
	}
	catalog := NewCatalog(e.cfg.Upgrades)
	if err := catalog.load(s.UpgradeCounts); err != nil {
		return fmt.Errorf("%w: upgrade counts: %w", ErrInvalidSnapshot, err)
	}

	e.ledger = Ledger{amount: s.ResourceAmount}
	e.env.load(s.EnvironmentLevel, s.TotalEvents)
	e.bonus.state = state
	e.catalog = catalog
	return nil
}

func (e *Engine) Status() Status {
	balance := e.ledger.Balance()
	upgrades := make([]UpgradeStatus, 0, len(e.cfg.Upgrades))
	for _, def := range e.catalog.Definitions() {
		next := def.CostAt(e.catalog.Count(def.ID))
		unlocked := e.catalog.Unlocked(def.ID, e.env.TotalEvents())
		upgrades = append(upgrades, UpgradeStatus{
			ID:              def.ID,
			Name:            def.Name,
			Count:           e.catalog.Count(def.ID),
			NextCost:        next,
			ProductionBonus: def.ProductionBonus,
			Unlocked:        unlocked,
			Affordable:      unlocked && next <= balance,
		})
	}
	remaining := e.bonus.remaining()
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Snapshot:              e.Snapshot(),
		EffectiveRate:         e.EffectiveRate(),
		EnvironmentModifier:   e.env.Modifier(),
		BonusModifier:         e.bonus.Modifier(),
		UpgradeBonusSum:       e.catalog.BonusSum(),
		InOptimalRange:        e.env.InOptimalRange(),
		BonusRemainingSeconds: remaining,
		ClicksDisabled:        e.clicksDisabled,
		Upgrades:              upgrades,
	}
}

// Project loads s into a fresh engine, advances it by seconds and returns the result.
func Project(cfg Config, s Snapshot, seconds float64) (Status, float64, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return Status{}, 0, err
	}
	if err := engine.Load(s); err != nil {
		return Status{}, 0, err
	}
	produced, err := engine.CatchUp(seconds)
	if err != nil {
		return Status{}, 0, err
	}
	return engine.Status(), produced, nil
}
