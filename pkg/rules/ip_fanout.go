package rules

import (
	"fmt"

	"github.com/gokaycavdar/go-cdrguard/pkg/aggregate"
)

// DefaultMaxUsersPerIP is how many distinct users may share a source IP
// before the fan-out rule fires.
const DefaultMaxUsersPerIP = 5

// IPFanoutRule detects many accounts behind one source address.
//
// Use cases:
//   - SIP proxies or SBCs reselling stolen credentials
//   - Botnets driving many accounts from one host
//   - Shared VPN exits used to hide call origin
//
// The rule is a risk signal: legitimate NATed offices also share addresses,
// which is why the threshold is on distinct usernames, not on calls.
type IPFanoutRule struct {
	MaxUsersPerIP int
}

func NewIPFanoutRule(maxUsers int) *IPFanoutRule {
	return &IPFanoutRule{MaxUsersPerIP: maxUsers}
}

func (i *IPFanoutRule) Name() string {
	return "Unusual IP Fan-out"
}

func (i *IPFanoutRule) Description() string {
	return fmt.Sprintf("A source IP used by more than %d distinct users.", i.MaxUsersPerIP)
}

// Check reports the number of users sharing the user's most shared IP.
func (i *IPFanoutRule) Check(agg aggregate.UserAggregate, gctx *aggregate.GlobalContext) Finding {
	_, sharing := gctx.MaxSharing(agg.SourceIPs)
	if sharing > i.MaxUsersPerIP {
		return Finding{Triggered: true, Count: sharing}
	}
	return Finding{}
}

// Tally counts the distinct users sitting on fan-out IPs, so that six users
// sharing one address count six, not thirty-six.
func (i *IPFanoutRule) Tally(_ []aggregate.UserAggregate, _ []Finding, gctx *aggregate.GlobalContext) int {
	users := make(map[string]struct{})
	for _, ip := range gctx.IPs() {
		sharing := gctx.UsersOnIP(ip)
		if len(sharing) <= i.MaxUsersPerIP {
			continue
		}
		for _, u := range sharing {
			users[u] = struct{}{}
		}
	}
	return len(users)
}
