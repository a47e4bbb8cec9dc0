package planet

type BonusPhase string

// progressEpsilon absorbs float accumulation so that many small ticks expire at the same
// moment as one long tick.
const progressEpsilon = 1e-9

const (
	BonusPhaseIdle    BonusPhase = "idle"
	BonusPhaseActive  BonusPhase = "active"
	BonusPhaseExpired BonusPhase = "expired"
)

// BonusState is one of BonusIdle, BonusActive or BonusExpired.
type BonusState interface {
	Phase() BonusPhase
	isBonusState()
}

type BonusIdle struct{}

type BonusActive struct {
	Progress float64
}

// BonusExpired has implicit progress 1.
type BonusExpired struct{}

func (BonusIdle) Phase() BonusPhase    { return BonusPhaseIdle }
func (BonusActive) Phase() BonusPhase  { return BonusPhaseActive }
func (BonusExpired) Phase() BonusPhase { return BonusPhaseExpired }

func (BonusIdle) isBonusState()    {}
func (BonusActive) isBonusState()  {}
func (BonusExpired) isBonusState() {}

// BonusProgress returns 0 for idle, the fraction for active and 1 for expired.
func BonusProgress(s BonusState) float64 {
	switch v := s.(type) {
	case BonusActive:
		return v.Progress
	case BonusExpired:
		return 1
	default:
		return 0
	}
}

// BonusTimer owns the single bonus slot.
type BonusTimer struct {
	cfg   BonusConfig
	state BonusState
}

func NewBonusTimer(cfg BonusConfig) *BonusTimer {
	return &BonusTimer{cfg: cfg, state: BonusIdle{}}
}

func (b *BonusTimer) State() BonusState {
	return b.state
}

func (b *BonusTimer) Phase() BonusPhase {
	return b.state.Phase()
}

func (b *BonusTimer) Progress() float64 {
	return BonusProgress(b.state)
}

// Start activates the bonus. inOptimal is the environment eligibility at call time.
func (b *BonusTimer) Start(inOptimal bool) error {
	if _, idle := b.state.(BonusIdle); !idle || !inOptimal {
		return ErrNotEligible
	}
	b.state = BonusActive{Progress: 0}
	return nil
}

// Rearm returns an expired bonus to idle. Only called by an external policy.
func (b *BonusTimer) Rearm() error {
	if _, expired := b.state.(BonusExpired); !expired {
		return ErrNotEligible
	}
	b.state = BonusIdle{}
	return nil
}

// Advance moves an active bonus forward by dt seconds and reports whether it expired during
// this call. Once expired, further calls are no-ops.
func (b *BonusTimer) Advance(dt float64) bool {
	active, ok := b.state.(BonusActive)
	if !ok || dt <= 0 {
		return false
	}
	progress := active.Progress + dt/b.cfg.DurationSeconds
	if progress >= 1-progressEpsilon {
		b.state = BonusExpired{}
		return true
	}
	b.state = BonusActive{Progress: progress}
	return false
}

func (b *BonusTimer) Modifier() float64 {
	if active, ok := b.state.(BonusActive); ok {
		return active.Progress * b.cfg.MaxModifier
	}
	return 0
}

// remaining is the time until expiry of an active bonus, or -1 otherwise.
func (b *BonusTimer) remaining() float64 {
	active, ok := b.state.(BonusActive)
	if !ok {
		return -1
	}
	return (1 - active.Progress) * b.cfg.DurationSeconds
}

// modifierAt is the bonus modifier t seconds ahead assuming the bonus is still active at t.
func (b *BonusTimer) modifierAt(t float64) float64 {
	active, ok := b.state.(BonusActive)
	if !ok {
		return 0
	}
	progress := active.Progress + t/b.cfg.DurationSeconds
	if progress > 1 {
		progress = 1
	}
	return progress * b.cfg.MaxModifier
}

func bonusStateFrom(phase BonusPhase, progress float64) (BonusState, bool) {
	switch phase {
	case BonusPhaseIdle, "":
		return BonusIdle{}, true
	case BonusPhaseActive:
		if !finite(progress) || progress < 0 || progress >= 1 {
			return nil, false
		}
		return BonusActive{Progress: progress}, true
	case BonusPhaseExpired:
		return BonusExpired{}, true
	default:
		return nil, false
	}
}
