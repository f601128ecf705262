package rules

import "github.com/gokaycavdar/go-cdrguard/pkg/aggregate"

// FailedConnectionsRule flags users with failed calls, typical of number
// scanning and credential stuffing against SIP trunks.
type FailedConnectionsRule struct{}

func NewFailedConnectionsRule() *FailedConnectionsRule {
	return &FailedConnectionsRule{}
}

func (f *FailedConnectionsRule) Name() string {
	return "Failed Connections"
}

func (f *FailedConnectionsRule) Description() string {
	return "Connections that ended with status failed."
}

func (f *FailedConnectionsRule) Check(agg aggregate.UserAggregate, _ *aggregate.GlobalContext) Finding {
	if agg.FailedCalls > 0 {
		return Finding{Triggered: true, Count: agg.FailedCalls}
	}
	return Finding{}
}
