package rules

import (
	"fmt"

	"github.com/gokaycavdar/go-cdrguard/pkg/aggregate"
)

// OddHourRule flags calls placed in the dead of night.
type OddHourRule struct{}

func NewOddHourRule() *OddHourRule {
	return &OddHourRule{}
}

func (o *OddHourRule) Name() string {
	return "Odd Hour Activity"
}

func (o *OddHourRule) Description() string {
	return fmt.Sprintf("Connections placed between %02d:00 and %02d:59.", aggregate.OddHourStart, aggregate.OddHourEnd)
}

func (o *OddHourRule) Check(agg aggregate.UserAggregate, _ *aggregate.GlobalContext) Finding {
	if agg.OddHourCalls > 0 {
		return Finding{Triggered: true, Count: agg.OddHourCalls}
	}
	return Finding{}
}
