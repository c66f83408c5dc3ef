// Package metrics records instance generation activity.
package metrics

// Collector receives generation events. Implementations must be safe for
// concurrent use.
type Collector interface {
	// InstanceCreated counts a persisted instance, labelled by rotation pattern.
	InstanceCreated(pattern string)
	// DuplicateAbsorbed counts an insert that lost a race to a concurrent writer.
	DuplicateAbsorbed()
	// ChoreFailed counts a chore skipped during a household sweep.
	ChoreFailed(reason string)
	// SweepCompleted records one full pass over all households.
	SweepCompleted(households int, seconds float64)
}

// Failure reasons passed to ChoreFailed.
const (
	ReasonInvalidRule    = "invalid_rule"
	ReasonEmptyPool      = "empty_pool"
	ReasonUnknownPattern = "unknown_pattern"
	ReasonStorage        = "storage"
)
