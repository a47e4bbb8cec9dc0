package planet

import "math"

// Ledger holds the spendable resource balance. The balance never goes negative.
type Ledger struct {
	amount float64
}

func (l *Ledger) Credit(amount float64) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return
	}
	l.amount += amount
}

func (l *Ledger) Debit(amount float64) error {
	if amount < 0 || math.IsNaN(amount) {
		return ErrInsufficientFunds
	}
	if amount > l.amount {
		return ErrInsufficientFunds
	}
	l.amount -= amount
	return nil
}

func (l *Ledger) Balance() float64 {
	return l.amount
}
