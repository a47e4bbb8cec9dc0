package planet

import "errors"

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrUnknownUpgrade       = errors.New("unknown upgrade")
	ErrLockedUpgrade        = errors.New("upgrade locked")
	ErrNotEligible          = errors.New("bonus not eligible")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidDelta         = errors.New("invalid delta seconds")
	ErrInvalidSnapshot      = errors.New("invalid snapshot")
)

// ErrorKind maps an engine error to the stable kind carried by action_rejected events.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrUnknownUpgrade):
		return "unknown_upgrade"
	case errors.Is(err, ErrLockedUpgrade):
		return "locked_upgrade"
	case errors.Is(err, ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, ErrInvalidDelta):
		return "invalid_delta"
	case errors.Is(err, ErrInvalidSnapshot):
		return "invalid_snapshot"
	default:
		return "unknown"
	}
}
