package planet

import "math"

// Environment drifts a bounded scalar level and derives the production modifier from it.
type Environment struct {
	cfg         EnvironmentConfig
	level       float64
	totalEvents int64
}

func NewEnvironment(cfg EnvironmentConfig) *Environment {
	e := &Environment{cfg: cfg}
	e.level = e.clamp(cfg.StartLevel)
	return e
}

func (e *Environment) Level() float64 {
	return e.level
}

func (e *Environment) TotalEvents() int64 {
	return e.totalEvents
}

// Advance applies natural drift for dt seconds. Drift is constant over the interval, so clamping
// once at the end matches clamping after every sub-step.
func (e *Environment) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	e.level = e.LevelAt(dt)
}

// LevelAt returns the level t seconds from now without mutating the environment.
func (e *Environment) LevelAt(t float64) float64 {
	if t <= 0 {
		return e.level
	}
	return e.clamp(e.level + e.cfg.DriftRate*t)
}

// Perturb applies a discrete signed change and counts it as an environment event.
func (e *Environment) Perturb(delta float64) bool {
	if !finite(delta) {
		return false
	}
	e.level = e.clamp(e.level + delta)
	e.totalEvents++
	return true
}

func (e *Environment) Modifier() float64 {
	return e.ModifierAt(e.level)
}

func (e *Environment) InOptimalRange() bool {
	return e.level >= e.cfg.OptimalLow && e.level <= e.cfg.OptimalHigh
}

// ModifierAt is MaxModifier inside the optimal range and falls off linearly to FloorModifier
// at the domain bounds.
func (e *Environment) ModifierAt(level float64) float64 {
	c := e.cfg
	level = e.clamp(level)
	switch {
	case level < c.OptimalLow:
		span := c.OptimalLow - c.Min
		if span <= 0 {
			return c.MaxModifier
		}
		return c.FloorModifier + (c.MaxModifier-c.FloorModifier)*(level-c.Min)/span
	case level > c.OptimalHigh:
		span := c.Max - c.OptimalHigh
		if span <= 0 {
			return c.MaxModifier
		}
		return c.FloorModifier + (c.MaxModifier-c.FloorModifier)*(c.Max-level)/span
	default:
		return c.MaxModifier
	}
}

// breakpoints lists the times in (0, dt) where the modifier curve changes slope along the drift
// path: crossing an optimal bound or reaching a domain bound.
func (e *Environment) breakpoints(dt float64) []float64 {
	drift := e.cfg.DriftRate
	if drift == 0 || dt <= 0 {
		return nil
	}
	out := make([]float64, 0, 3)
	for _, target := range []float64{e.cfg.OptimalLow, e.cfg.OptimalHigh, e.cfg.Min, e.cfg.Max} {
		t := (target - e.level) / drift
		if t > 0 && t < dt && !math.IsInf(t, 0) {
			out = append(out, t)
		}
	}
	return out
}

func (e *Environment) load(level float64, totalEvents int64) {
	e.level = e.clamp(level)
	e.totalEvents = totalEvents
}

func (e *Environment) clamp(v float64) float64 {
	if v < e.cfg.Min {
		return e.cfg.Min
	}
	if v > e.cfg.Max {
		return e.cfg.Max
	}
	return v
}
