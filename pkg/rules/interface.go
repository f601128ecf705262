package rules

import "github.com/gokaycavdar/go-cdrguard/pkg/aggregate"

// Finding is the outcome of one rule for one user.
type Finding struct {
	Triggered bool
	Count     int
}

// Rule is a pure detection predicate over a precomputed aggregate. Rules
// never see raw connections.
type Rule interface {
	// Name is the unique display name, e.g. "High Call Frequency".
	Name() string

	// Description explains what the rule looks for.
	Description() string

	// Check evaluates the rule for one user. Count follows the rule's own
	// semantics (calls, connections, users, or 1 for boolean rules).
	Check(agg aggregate.UserAggregate, gctx *aggregate.GlobalContext) Finding
}

// Tallier is implemented by rules whose dataset-level count is not the sum
// of per-user counts. The registry detects it with a type assertion.
type Tallier interface {
	// Tally returns the dataset-level count given the per-user findings of
	// every triggered user.
	Tally(triggered []aggregate.UserAggregate, findings []Finding, gctx *aggregate.GlobalContext) int
}
