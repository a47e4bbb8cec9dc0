package model

import "time"

const TableNamePlanetState = "planet_states"

// PlanetState mapped from table <planet_states>
type PlanetState struct {
	PlayerID         string    `gorm:"column:player_id;primaryKey" json:"player_id"`
	ResourceAmount   float64   `gorm:"column:resource_amount;not null" json:"resource_amount"`
	EnvironmentLevel float64   `gorm:"column:environment_level;not null" json:"environment_level"`
	TotalEvents      int64     `gorm:"column:total_events;not null" json:"total_events"`
	BonusPhase       string    `gorm:"column:bonus_phase;not null;default:idle" json:"bonus_phase"`
	BonusProgress    float64   `gorm:"column:bonus_progress;not null" json:"bonus_progress"`
	UpgradeCounts    string    `gorm:"column:upgrade_counts;type:jsonb;not null;default:'{}'" json:"upgrade_counts"`
	Version          int64     `gorm:"column:version;not null" json:"version"`
	CreatedAt        time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName PlanetState's table name
func (*PlanetState) TableName() string {
	return TableNamePlanetState
}
