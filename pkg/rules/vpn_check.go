package rules

import (
	"fmt"

	"github.com/gokaycavdar/go-cdrguard/pkg/aggregate"
)

// VPNDetectionRule looks for callers hiding their origin behind a VPN or relay.
//
// Any of three independent signals is enough:
//   - calls routed through more than MaxCountries distinct countries
//   - a mean latency above MaxAvgLatencyMs (tunnels add round trips)
//   - a SIP User-Agent or Via header carrying a VPN/relay marker
type VPNDetectionRule struct {
	MaxCountries    int
	MaxAvgLatencyMs float64
}

// NewVPNDetectionRule builds the rule with custom thresholds.
func NewVPNDetectionRule(maxCountries int, maxAvgLatencyMs float64) *VPNDetectionRule {
	return &VPNDetectionRule{
		MaxCountries:    maxCountries,
		MaxAvgLatencyMs: maxAvgLatencyMs,
	}
}

// DefaultVPNDetectionRule fires above 2 countries or 120ms mean latency.
func DefaultVPNDetectionRule() *VPNDetectionRule {
	return NewVPNDetectionRule(2, 120)
}

func (v *VPNDetectionRule) Name() string {
	return "VPN Detection"
}

func (v *VPNDetectionRule) Description() string {
	return fmt.Sprintf("More than %d countries, average latency above %.0fms, or VPN markers in SIP headers.",
		v.MaxCountries, v.MaxAvgLatencyMs)
}

func (v *VPNDetectionRule) Check(agg aggregate.UserAggregate, _ *aggregate.GlobalContext) Finding {
	if agg.TotalCalls == 0 {
		return Finding{}
	}
	if agg.DistinctCountries() > v.MaxCountries ||
		agg.AvgLatency() > v.MaxAvgLatencyMs ||
		agg.SIPAnomaly {
		return Finding{Triggered: true, Count: 1}
	}
	return Finding{}
}
