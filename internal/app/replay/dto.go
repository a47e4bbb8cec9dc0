package replay

import "sourplanet/internal/domain/planet"

type Request struct {
	PlayerID string
	Limit    int

	// OccurredFrom and OccurredTo are inclusive unix seconds; zero leaves the side open.
	OccurredFrom int64
	OccurredTo   int64
}

// Summary is what the returned events say about the session, oldest to newest.
type Summary struct {
	LatestBalance    float64           `json:"latest_balance"`
	LatestLevel      float64           `json:"latest_level"`
	LatestBonusPhase planet.BonusPhase `json:"latest_bonus_phase,omitempty"`
	Produced         float64           `json:"produced"`
	ClickGranted     float64           `json:"click_granted"`
	Spent            float64           `json:"spent"`
	Purchases        map[string]int    `json:"purchases"`
	Rejections       map[string]int    `json:"rejections"`
}

type Response struct {
	Events  []planet.DomainEvent `json:"events"`
	Summary Summary              `json:"summary"`
}
