package planet

import "time"

// Snapshot is the persisted state of one engine.
type Snapshot struct {
	ResourceAmount   float64        `json:"resource_amount"`
	EnvironmentLevel float64        `json:"environment_level"`
	TotalEvents      int64          `json:"total_events"`
	BonusPhase       BonusPhase     `json:"bonus_phase"`
	BonusProgress    float64        `json:"bonus_progress"`
	UpgradeCounts    map[string]int `json:"upgrade_counts"`
}

type UpgradeStatus struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Count           int     `json:"count"`
	NextCost        float64 `json:"next_cost"`
	ProductionBonus float64 `json:"production_bonus"`
	Unlocked        bool    `json:"unlocked"`
	Affordable      bool    `json:"affordable"`
}

// Status is the read-only view handed to renderers.
type Status struct {
	Snapshot
	EffectiveRate         float64         `json:"effective_rate"`
	EnvironmentModifier   float64         `json:"environment_modifier"`
	BonusModifier         float64         `json:"bonus_modifier"`
	UpgradeBonusSum       float64         `json:"upgrade_bonus_sum"`
	InOptimalRange        bool            `json:"in_optimal_range"`
	BonusRemainingSeconds float64         `json:"bonus_remaining_seconds"`
	ClicksDisabled        bool            `json:"clicks_disabled"`
	Upgrades              []UpgradeStatus `json:"upgrades"`
}

// SessionState is a player's stored engine snapshot.
type SessionState struct {
	PlayerID  string    `json:"player_id"`
	Snapshot  Snapshot  `json:"snapshot"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DomainEvent struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}

func NewSessionState(playerID string, cfg Config, now time.Time) (SessionState, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return SessionState{}, err
	}
	return SessionState{
		PlayerID:  playerID,
		Snapshot:  engine.Snapshot(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
