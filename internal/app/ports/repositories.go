package ports

import (
	"context"
	"errors"
	"time"

	"sourplanet/internal/domain/planet"
)

// Repository errors. Adapters translate driver errors into these so use cases never import a
// storage package.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// TxManager runs fn with a transaction bound to the returned ctx. Repositories called with that
// ctx join it; a nested RunInTx joins the outer transaction instead of opening a new one.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type PlanetStateRepository interface {
	GetByPlayerID(ctx context.Context, playerID string) (planet.SessionState, error)
	// SaveWithVersion inserts when expectedVersion is 0, otherwise updates only if the stored
	// version still equals expectedVersion and returns ErrConflict when it does not.
	SaveWithVersion(ctx context.Context, state planet.SessionState, expectedVersion int64) error
}

// EventRepository is the append-only notification log. ListByPlayerID returns newest first
// and ErrNotFound when the player has no events.
type EventRepository interface {
	Append(ctx context.Context, playerID string, events []planet.DomainEvent) error
	ListByPlayerID(ctx context.Context, playerID string, limit int) ([]planet.DomainEvent, error)
}

type PlayerCredentialRecord struct {
	PlayerID  string
	KeySalt   []byte
	KeyHash   []byte
	Status    string
	CreatedAt time.Time
}

type PlayerCredentialRepository interface {
	Create(ctx context.Context, credential PlayerCredentialRecord) error
	GetByPlayerID(ctx context.Context, playerID string) (PlayerCredentialRecord, error)
}
