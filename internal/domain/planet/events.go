package planet

type EventType string

const (
	EventProductionApplied    EventType = "production_applied"
	EventBonusPhaseChanged    EventType = "bonus_phase_changed"
	EventUpgradePurchased     EventType = "upgrade_purchased"
	EventActionRejected       EventType = "action_rejected"
	EventClickProcessed       EventType = "click_processed"
	EventEnvironmentPerturbed EventType = "environment_perturbed"
)

// Event is a change notification. Only the fields relevant to Type are set.
type Event struct {
	Type EventType `json:"type"`

	ElapsedSeconds float64 `json:"elapsed_seconds,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	Balance        float64 `json:"balance"`

	FromPhase BonusPhase `json:"from_phase,omitempty"`
	ToPhase   BonusPhase `json:"to_phase,omitempty"`

	UpgradeID string  `json:"upgrade_id,omitempty"`
	Cost      float64 `json:"cost,omitempty"`
	Count     int     `json:"count,omitempty"`

	Level float64 `json:"level,omitempty"`

	Action    string `json:"action,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Listener receives events synchronously, in the order the mutations happened.
type Listener func(Event)

// Payload flattens the event into the map form stored in the event log.
func (e Event) Payload() map[string]any {
	out := map[string]any{"balance": e.Balance}
	switch e.Type {
	case EventProductionApplied:
		out["elapsed_seconds"] = e.ElapsedSeconds
		out["amount"] = e.Amount
	case EventBonusPhaseChanged:
		out["from_phase"] = string(e.FromPhase)
		out["to_phase"] = string(e.ToPhase)
	case EventUpgradePurchased:
		out["upgrade_id"] = e.UpgradeID
		out["cost"] = e.Cost
		out["count"] = e.Count
	case EventClickProcessed:
		out["amount"] = e.Amount
	case EventEnvironmentPerturbed:
		out["level"] = e.Level
		out["amount"] = e.Amount
	case EventActionRejected:
		out["action"] = e.Action
		out["error_kind"] = e.ErrorKind
		if e.UpgradeID != "" {
			out["upgrade_id"] = e.UpgradeID
		}
	}
	return out
}
