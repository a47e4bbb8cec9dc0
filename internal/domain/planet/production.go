package planet

import "sort"

// ComputeRate is the effective production per second. It is a pure function of its inputs.
func ComputeRate(base, upgradeBonusSum, environmentModifier, bonusModifier float64) float64 {
	return base * (1 + upgradeBonusSum) * environmentModifier * (1 + bonusModifier)
}

// segment is a sub-interval of a tick on which the rate is a single quadratic in time.
type segment struct {
	from, to float64
	active   bool
}

// integrateProduction returns the resources produced over the next dt seconds given the current
// environment and bonus, without mutating either. Between breakpoints the environment modifier
// and the bonus modifier are both linear in time, so their product is quadratic and Simpson's rule
// is exact on each segment. This makes one long tick equal to many short ones.
func integrateProduction(base, upgradeBonusSum float64, env *Environment, bonus *BonusTimer, dt float64) float64 {
	if dt <= 0 || base == 0 {
		return 0
	}
	expiry := bonus.remaining()
	total := 0.0
	for _, seg := range splitInterval(dt, env.breakpoints(dt), expiry) {
		h := seg.to - seg.from
		if h <= 0 {
			continue
		}
		mid := seg.from + h/2
		f0 := rateAt(base, upgradeBonusSum, env, bonus, seg.from, seg.active)
		fm := rateAt(base, upgradeBonusSum, env, bonus, mid, seg.active)
		f1 := rateAt(base, upgradeBonusSum, env, bonus, seg.to, seg.active)
		total += h * (f0 + 4*fm + f1) / 6
	}
	return total
}

func rateAt(base, upgradeBonusSum float64, env *Environment, bonus *BonusTimer, t float64, bonusActive bool) float64 {
	bonusModifier := 0.0
	if bonusActive {
		bonusModifier = bonus.modifierAt(t)
	}
	return ComputeRate(base, upgradeBonusSum, env.ModifierAt(env.LevelAt(t)), bonusModifier)
}

func splitInterval(dt float64, breaks []float64, expiry float64) []segment {
	points := make([]float64, 0, len(breaks)+3)
	points = append(points, 0, dt)
	points = append(points, breaks...)
	if expiry > 0 && expiry < dt {
		points = append(points, expiry)
	}
	sort.Float64s(points)

	out := make([]segment, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		from, to := points[i-1], points[i]
		if to <= from {
			continue
		}
		out = append(out, segment{
			from:   from,
			to:     to,
			active: expiry > 0 && from < expiry,
		})
	}
	return out
}
