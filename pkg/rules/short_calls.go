package rules

import "github.com/gokaycavdar/go-cdrguard/pkg/aggregate"

// VeryShortCallsRule flags users with calls lasting 1 to 3 seconds, the
// signature of one-ring (wangiri) callback fraud and line probing.
type VeryShortCallsRule struct{}

func NewVeryShortCallsRule() *VeryShortCallsRule {
	return &VeryShortCallsRule{}
}

func (v *VeryShortCallsRule) Name() string {
	return "Very Short Calls"
}

func (v *VeryShortCallsRule) Description() string {
	return "Connections lasting between 1 and 3 seconds."
}

func (v *VeryShortCallsRule) Check(agg aggregate.UserAggregate, _ *aggregate.GlobalContext) Finding {
	if agg.VeryShortCalls > 0 {
		return Finding{Triggered: true, Count: agg.VeryShortCalls}
	}
	return Finding{}
}
