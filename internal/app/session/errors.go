package session

import (
	"errors"

	"sourplanet/internal/domain/planet"
)

var (
	ErrInvalidRequest    = errors.New("invalid session request")
	ErrUnsupportedAction = errors.New("unsupported action")
)

// ActionRejectedError is a domain refusal of a player action. Nothing was saved.
type ActionRejectedError struct {
	Action ActionType
	Err    error
}

func (e *ActionRejectedError) Error() string {
	return string(e.Action) + " rejected: " + e.Err.Error()
}

func (e *ActionRejectedError) Unwrap() error {
	return e.Err
}

func (e *ActionRejectedError) Kind() string {
	return planet.ErrorKind(e.Err)
}
