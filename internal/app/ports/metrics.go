package ports

// ActionMetrics counts session action outcomes. Rejected actions are domain refusals
// (insufficient funds, locked upgrade, ...) keyed by their error kind.
type ActionMetrics interface {
	RecordSuccess(action string)
	RecordRejected(kind string)
	RecordConflict()
	RecordFailure()
}
