package rules

import (
	"fmt"

	"github.com/gokaycavdar/go-cdrguard/pkg/aggregate"
)

// DefaultMaxCalls is the per-user call volume above which the frequency rule fires.
const DefaultMaxCalls = 100

// HighFrequencyRule flags users placing more calls than MaxCalls in the
// analyzed window (toll fraud, auto-dialers, wangiri campaigns).
type HighFrequencyRule struct {
	MaxCalls int
}

func NewHighFrequencyRule(maxCalls int) *HighFrequencyRule {
	return &HighFrequencyRule{MaxCalls: maxCalls}
}

func (h *HighFrequencyRule) Name() string {
	return "High Call Frequency"
}

func (h *HighFrequencyRule) Description() string {
	return fmt.Sprintf("Users placing more than %d calls in the analyzed period.", h.MaxCalls)
}

// Check reports the user's call count when it exceeds MaxCalls.
func (h *HighFrequencyRule) Check(agg aggregate.UserAggregate, _ *aggregate.GlobalContext) Finding {
	if agg.TotalCalls > h.MaxCalls {
		return Finding{Triggered: true, Count: agg.TotalCalls}
	}
	return Finding{}
}

// Tally counts users, not calls: the table answers "how many users dial too much".
func (h *HighFrequencyRule) Tally(triggered []aggregate.UserAggregate, _ []Finding, _ *aggregate.GlobalContext) int {
	return len(triggered)
}
