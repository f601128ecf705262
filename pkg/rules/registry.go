package rules

import (
	"github.com/gokaycavdar/go-cdrguard/pkg/aggregate"
	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

// Registry is an ordered set of rules.
type Registry struct {
	rules []Rule
}

// NewRegistry returns a registry evaluating rules in the given order.
func NewRegistry(rs ...Rule) *Registry {
	return &Registry{rules: append([]Rule(nil), rs...)}
}

// Default returns the seven CDR rules in their fixed display order.
func Default() *Registry {
	return NewRegistry(
		NewHighFrequencyRule(DefaultMaxCalls),
		NewVeryShortCallsRule(),
		NewOddHourRule(),
		NewFailedConnectionsRule(),
		NewIPFanoutRule(DefaultMaxUsersPerIP),
		DefaultVPNDetectionRule(),
		NewBlockedCountryRule(),
	)
}

// Rules returns the rules in evaluation order.
func (r *Registry) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Len is the number of rules.
func (r *Registry) Len() int {
	return len(r.rules)
}

// Summarize evaluates every rule over the snapshot and returns the
// dataset-level trigger table, one row per rule in registry order.
//
// The table is built from rule findings only; it never looks at scores.
func (r *Registry) Summarize(snap *aggregate.Snapshot) []models.RuleSummary {
	gctx := snap.Global()
	summaries := make([]models.RuleSummary, 0, len(r.rules))

	for _, rule := range r.rules {
		var (
			triggered []aggregate.UserAggregate
			findings  []Finding
		)
		snap.Each(func(agg aggregate.UserAggregate) {
			if f := rule.Check(agg, gctx); f.Triggered {
				triggered = append(triggered, agg)
				findings = append(findings, f)
			}
		})

		count := 0
		if tallier, ok := rule.(Tallier); ok {
			count = tallier.Tally(triggered, findings, gctx)
		} else {
			for _, f := range findings {
				count += f.Count
			}
		}

		summaries = append(summaries, models.RuleSummary{
			Name:        rule.Name(),
			Description: rule.Description(),
			Triggered:   len(findings) > 0,
			Count:       count,
		})
	}
	return summaries
}
