package planet

import "math"

type UpgradeDefinition struct {
	ID              string
	Name            string
	BaseCost        float64
	CostMultiplier  float64
	ProductionBonus float64
	Unlock          UnlockCondition
}

// UnlockCondition gates a purchase. The zero value is always met.
type UnlockCondition struct {
	RequiresID    string
	RequiresCount int
	MinEvents     int64
}

func (u UnlockCondition) Met(counts map[string]int, totalEvents int64) bool {
	if u.RequiresID != "" && counts[u.RequiresID] < max(u.RequiresCount, 1) {
		return false
	}
	return totalEvents >= u.MinEvents
}

// CostAt is BaseCost * CostMultiplier^n.
func (d UpgradeDefinition) CostAt(n int) float64 {
	if n <= 0 {
		return d.BaseCost
	}
	return d.BaseCost * math.Pow(d.CostMultiplier, float64(n))
}

// Catalog holds the immutable definitions and the mutable purchase counts.
type Catalog struct {
	defs   []UpgradeDefinition
	byID   map[string]int
	counts map[string]int
}

func NewCatalog(defs []UpgradeDefinition) *Catalog {
	c := &Catalog{
		defs:   append([]UpgradeDefinition(nil), defs...),
		byID:   make(map[string]int, len(defs)),
		counts: make(map[string]int, len(defs)),
	}
	for i, def := range c.defs {
		c.byID[def.ID] = i
	}
	return c
}

func (c *Catalog) Definitions() []UpgradeDefinition {
	return append([]UpgradeDefinition(nil), c.defs...)
}

func (c *Catalog) Definition(id string) (UpgradeDefinition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return UpgradeDefinition{}, false
	}
	return c.defs[i], true
}

func (c *Catalog) Count(id string) int {
	return c.counts[id]
}

func (c *Catalog) Counts() map[string]int {
	out := make(map[string]int, len(c.counts))
	for id, n := range c.counts {
		if n > 0 {
			out[id] = n
		}
	}
	return out
}

func (c *Catalog) NextCost(id string) (float64, error) {
	def, ok := c.Definition(id)
	if !ok {
		return 0, ErrUnknownUpgrade
	}
	return def.CostAt(c.counts[id]), nil
}

func (c *Catalog) Unlocked(id string, totalEvents int64) bool {
	def, ok := c.Definition(id)
	if !ok {
		return false
	}
	return def.Unlock.Met(c.counts, totalEvents)
}

// BonusSum is the additive production bonus of every purchased upgrade.
func (c *Catalog) BonusSum() float64 {
	sum := 0.0
	for _, def := range c.defs {
		sum += float64(c.counts[def.ID]) * def.ProductionBonus
	}
	return sum
}

// Purchase debits the next cost from ledger and increments the count. On any error nothing changes.
func (c *Catalog) Purchase(id string, ledger *Ledger, totalEvents int64) (float64, error) {
	def, ok := c.Definition(id)
	if !ok {
		return 0, ErrUnknownUpgrade
	}
	if !def.Unlock.Met(c.counts, totalEvents) {
		return 0, ErrLockedUpgrade
	}
	cost := def.CostAt(c.counts[id])
	if err := ledger.Debit(cost); err != nil {
		return 0, err
	}
	c.counts[id]++
	return cost, nil
}

func (c *Catalog) load(counts map[string]int) error {
	next := make(map[string]int, len(counts))
	for id, n := range counts {
		if _, ok := c.byID[id]; !ok {
			return ErrUnknownUpgrade
		}
		if n < 0 {
			return ErrInvalidSnapshot
		}
		next[id] = n
	}
	c.counts = next
	return nil
}
