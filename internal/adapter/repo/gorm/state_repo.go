package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sourplanet/internal/adapter/repo/gorm/model"
	"sourplanet/internal/app/ports"
	"sourplanet/internal/domain/planet"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanetStateRepo struct {
	db *gorm.DB
}

func NewPlanetStateRepo(db *gorm.DB) PlanetStateRepo {
	return PlanetStateRepo{db: db}
}

func (r PlanetStateRepo) GetByPlayerID(ctx context.Context, playerID string) (planet.SessionState, error) {
	var m model.PlanetState
	if err := dbFromCtx(ctx, r.db).Where("player_id = ?", playerID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return planet.SessionState{}, ports.ErrNotFound
		}
		return planet.SessionState{}, err
	}
	counts := map[string]int{}
	if m.UpgradeCounts != "" {
		if err := json.Unmarshal([]byte(m.UpgradeCounts), &counts); err != nil {
			return planet.SessionState{}, fmt.Errorf("decode upgrade counts for %s: %w", playerID, err)
		}
	}
	return planet.SessionState{
		PlayerID: m.PlayerID,
		Snapshot: planet.Snapshot{
			ResourceAmount:   m.ResourceAmount,
			EnvironmentLevel: m.EnvironmentLevel,
			TotalEvents:      m.TotalEvents,
			BonusPhase:       planet.BonusPhase(m.BonusPhase),
			BonusProgress:    m.BonusProgress,
			UpgradeCounts:    counts,
		},
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func (r PlanetStateRepo) SaveWithVersion(ctx context.Context, state planet.SessionState, expectedVersion int64) error {
	db := dbFromCtx(ctx, r.db)
	counts, err := json.Marshal(nonNilCounts(state.Snapshot.UpgradeCounts))
	if err != nil {
		return err
	}
	phase := state.Snapshot.BonusPhase
	if phase == "" {
		phase = planet.BonusPhaseIdle
	}

	if expectedVersion == 0 {
		m := model.PlanetState{
			PlayerID:         state.PlayerID,
			ResourceAmount:   state.Snapshot.ResourceAmount,
			EnvironmentLevel: state.Snapshot.EnvironmentLevel,
			TotalEvents:      state.Snapshot.TotalEvents,
			BonusPhase:       string(phase),
			BonusProgress:    state.Snapshot.BonusProgress,
			UpgradeCounts:    string(counts),
			Version:          state.Version,
			CreatedAt:        state.CreatedAt,
			UpdatedAt:        state.UpdatedAt,
		}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ports.ErrConflict
		}
		return nil
	}

	updates := map[string]any{
		"resource_amount":   state.Snapshot.ResourceAmount,
		"environment_level": state.Snapshot.EnvironmentLevel,
		"total_events":      state.Snapshot.TotalEvents,
		"bonus_phase":       string(phase),
		"bonus_progress":    state.Snapshot.BonusProgress,
		"upgrade_counts":    string(counts),
		"version":           state.Version,
		"updated_at":        state.UpdatedAt,
	}
	res := db.Model(&model.PlanetState{}).
		Where("player_id = ? AND version = ?", state.PlayerID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return nil
}

func nonNilCounts(counts map[string]int) map[string]int {
	if counts == nil {
		return map[string]int{}
	}
	return counts
}
