package planet

import "math"

// ProcessClick converts one user click into an immediate ledger credit and returns the grant.
// A disabled click is a no-op with a zero grant.
func ProcessClick(ledger *Ledger, clickPower, environmentModifier float64, disabled bool) float64 {
	if disabled {
		return 0
	}
	grant := math.Floor(clickPower * environmentModifier)
	if grant <= 0 || !finite(grant) {
		return 0
	}
	ledger.Credit(grant)
	return grant
}
