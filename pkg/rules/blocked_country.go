package rules

import "github.com/gokaycavdar/go-cdrguard/pkg/aggregate"

// BlockedCountryRule flags users registered in a country of BlockedCountries.
// Orphaned connections carry no registered country and never match.
type BlockedCountryRule struct{}

func NewBlockedCountryRule() *BlockedCountryRule {
	return &BlockedCountryRule{}
}

func (b *BlockedCountryRule) Name() string {
	return "Blocked Country"
}

func (b *BlockedCountryRule) Description() string {
	return "Users registered in a blocked or sanctioned country."
}

func (b *BlockedCountryRule) Check(agg aggregate.UserAggregate, _ *aggregate.GlobalContext) Finding {
	if IsBlockedCountry(agg.Country) {
		return Finding{Triggered: true, Count: 1}
	}
	return Finding{}
}
