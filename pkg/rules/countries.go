package rules

import "strings"

// BlockedCountries is the fixed set of destination/origin countries treated
// as sanctioned or high-fraud regions. Order is stable so that callers
// iterating it (the generator in particular) stay deterministic.
var BlockedCountries = []string{"RU", "CN", "KP", "IR", "SY", "VE", "CU", "MM", "BY", "UZ"}

var blockedCountrySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(BlockedCountries))
	for _, c := range BlockedCountries {
		set[c] = struct{}{}
	}
	return set
}()

// IsBlockedCountry reports whether the ISO-ish country code is in the blocked set.
func IsBlockedCountry(code string) bool {
	_, ok := blockedCountrySet[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}
