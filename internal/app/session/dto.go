package session

import (
	"time"

	"sourplanet/internal/domain/planet"
)

type ActionType string

const (
	ActionSync       ActionType = "sync"
	ActionClick      ActionType = "click"
	ActionPurchase   ActionType = "purchase"
	ActionStartBonus ActionType = "start_bonus"
	ActionRearmBonus ActionType = "rearm_bonus"
)

// MaxClicksPerRequest bounds a batched click action.
const MaxClicksPerRequest = 100

type StartRequest struct {
	// PlayerID is optional; a new id is generated when empty.
	PlayerID string
}

type StartResponse struct {
	State  planet.SessionState `json:"state"`
	Status planet.Status       `json:"status"`
}

type Request struct {
	PlayerID  string
	Action    ActionType
	UpgradeID string
	Clicks    int
}

type Response struct {
	State           planet.SessionState  `json:"state"`
	Status          planet.Status        `json:"status"`
	Events          []planet.DomainEvent `json:"events"`
	CaughtUpSeconds float64              `json:"caught_up_seconds"`
	Produced        float64              `json:"produced"`
	ClickGrant      float64              `json:"click_grant,omitempty"`
	Cost            float64              `json:"cost,omitempty"`
	SettledAt       time.Time            `json:"settled_at"`
}
