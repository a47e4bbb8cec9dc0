package status

import "sourplanet/internal/domain/planet"

type Request struct {
	PlayerID string
}

type Response struct {
	PlayerID        string        `json:"player_id"`
	Version         int64         `json:"version"`
	Status          planet.Status `json:"status"`
	PendingSeconds  float64       `json:"pending_seconds"`
	PendingProduced float64       `json:"pending_produced"`

	// RearmInSeconds is set while an automatic bonus re-arm is pending.
	RearmInSeconds int `json:"rearm_in_seconds,omitempty"`
}
