package model

import "time"

const TableNamePlanetEvent = "planet_events"

// PlanetEvent mapped from table <planet_events>
type PlanetEvent struct {
	Seq        int64     `gorm:"column:seq;primaryKey;autoIncrement:true" json:"seq"`
	EventID    string    `gorm:"column:event_id;not null" json:"event_id"`
	PlayerID   string    `gorm:"column:player_id;not null" json:"player_id"`
	Type       string    `gorm:"column:type;not null" json:"type"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null" json:"occurred_at"`
	Payload    string    `gorm:"column:payload;type:jsonb;not null" json:"payload"`
}

// TableName PlanetEvent's table name
func (*PlanetEvent) TableName() string {
	return TableNamePlanetEvent
}
