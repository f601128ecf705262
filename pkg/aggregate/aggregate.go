// Package aggregate reduces connections into per-user behavioral aggregates.
//
// Build makes exactly one pass over the connections. Every rule and every
// scoring signal reads the precomputed aggregates, so a full analysis is
// O(users + connections) instead of rescanning the CDRs per rule.
package aggregate

import (
	"sort"
	"strings"

	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

// Duration bands, in seconds, inclusive.
const (
	VeryShortMin = 1
	VeryShortMax = 3
	ShortMax     = 5
)

// Odd hours, inclusive, in the CDR timestamp's own clock.
const (
	OddHourStart = 1
	OddHourEnd   = 4
)

// HourBucket indexes UserAggregate.HourHistogram.
type HourBucket int

const (
	Morning   HourBucket = iota // 06:00-11:59
	Afternoon                   // 12:00-17:59
	Evening                     // 18:00-23:59
	Night                       // 00:00-05:59
)

// BucketFor returns the histogram bucket of an hour of day.
func BucketFor(hour int) HourBucket {
	switch {
	case hour >= 6 && hour < 12:
		return Morning
	case hour >= 12 && hour < 18:
		return Afternoon
	case hour >= 18:
		return Evening
	default:
		return Night
	}
}

// SIPMarkers are lowercase substrings of a SIP User-Agent or Via header that
// reveal a VPN, proxy or relay in the signalling path.
var SIPMarkers = []string{"vpn", "proxy", "tunnel", "relay", "anonymizer", "tor-exit"}

// HasSIPMarker reports whether header contains one of SIPMarkers.
func HasSIPMarker(header string) bool {
	if header == "" {
		return false
	}
	h := strings.ToLower(header)
	for _, m := range SIPMarkers {
		if strings.Contains(h, m) {
			return true
		}
	}
	return false
}

// UserAggregate is the behavioral summary of one user. It is a value: Build
// hands out copies and nothing mutates them afterwards.
type UserAggregate struct {
	Username string

	// Known is false for orphans, i.e. connections whose user is missing
	// from the users table.
	Known bool

	// Country is the user's registered country, empty for orphans.
	Country string

	TotalCalls   int
	SuccessCalls int
	FailedCalls  int
	DurationSum  int64

	// VeryShortCalls counts calls lasting 1-3s, ShortCalls 1-5s.
	VeryShortCalls int
	ShortCalls     int

	// OddHourCalls counts calls placed between 01:00 and 04:59.
	OddHourCalls int

	HourHistogram [4]int

	// SourceIPs and Countries are distinct and sorted.
	SourceIPs []string
	Countries []string

	LatencySum     int64
	LatencySamples int

	// SIPAnomaly is set when any call carried a SIP marker.
	SIPAnomaly bool
}

// AvgLatency is the mean latency in milliseconds, 0 without samples.
func (a UserAggregate) AvgLatency() float64 {
	if a.LatencySamples == 0 {
		return 0
	}
	return float64(a.LatencySum) / float64(a.LatencySamples)
}

// DistinctCountries is the number of distinct connection countries.
func (a UserAggregate) DistinctCountries() int {
	return len(a.Countries)
}

// GlobalContext carries the cross-user facts needed by fan-out detection.
type GlobalContext struct {
	ipUsers map[string][]string
}

// UsersOnIP returns the sorted distinct usernames seen on ip.
func (g *GlobalContext) UsersOnIP(ip string) []string {
	if g == nil {
		return nil
	}
	return g.ipUsers[ip]
}

// UserCount returns how many distinct users used ip.
func (g *GlobalContext) UserCount(ip string) int {
	return len(g.UsersOnIP(ip))
}

// IPs returns every source IP seen, sorted.
func (g *GlobalContext) IPs() []string {
	if g == nil {
		return nil
	}
	ips := make([]string, 0, len(g.ipUsers))
	for ip := range g.ipUsers {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips
}

// MaxSharing returns the largest number of users sharing any of ips, and the
// IP achieving it (ties resolved by the first IP in ips order).
func (g *GlobalContext) MaxSharing(ips []string) (string, int) {
	var (
		bestIP string
		best   int
	)
	for _, ip := range ips {
		if n := g.UserCount(ip); n > best {
			bestIP, best = ip, n
		}
	}
	return bestIP, best
}

// Snapshot is the immutable output of Build.
type Snapshot struct {
	aggregates map[string]UserAggregate
	usernames  []string
	global     *GlobalContext
	calls      int
}

// Get returns the aggregate of username.
func (s *Snapshot) Get(username string) (UserAggregate, bool) {
	a, ok := s.aggregates[username]
	return a, ok
}

// Usernames returns every aggregated user, sorted, orphans included.
func (s *Snapshot) Usernames() []string {
	out := make([]string, len(s.usernames))
	copy(out, s.usernames)
	return out
}

// Len is the number of aggregates.
func (s *Snapshot) Len() int {
	return len(s.usernames)
}

// Global returns the cross-user context.
func (s *Snapshot) Global() *GlobalContext {
	return s.global
}

// TotalConnections is the number of connections reduced.
func (s *Snapshot) TotalConnections() int {
	return s.calls
}

// Each calls fn for every aggregate in username order.
func (s *Snapshot) Each(fn func(UserAggregate)) {
	for _, name := range s.usernames {
		fn(s.aggregates[name])
	}
}

// accumulator is the mutable per-user state of the fold. It never escapes Build.
type accumulator struct {
	agg       UserAggregate
	ips       map[string]struct{}
	countries map[string]struct{}
}

func newAccumulator(username string) *accumulator {
	return &accumulator{
		agg:       UserAggregate{Username: username},
		ips:       make(map[string]struct{}),
		countries: make(map[string]struct{}),
	}
}

func (acc *accumulator) add(c models.Connection) {
	a := &acc.agg
	a.TotalCalls++
	if c.Status.IsFailed() {
		a.FailedCalls++
	} else {
		a.SuccessCalls++
	}

	d := c.DurationSeconds
	a.DurationSum += int64(d)
	if d >= VeryShortMin && d <= VeryShortMax {
		a.VeryShortCalls++
	}
	if d >= VeryShortMin && d <= ShortMax {
		a.ShortCalls++
	}

	hour := c.CallTimestamp.Hour()
	if hour >= OddHourStart && hour <= OddHourEnd {
		a.OddHourCalls++
	}
	a.HourHistogram[BucketFor(hour)]++

	if c.SourceIP != "" {
		acc.ips[c.SourceIP] = struct{}{}
	}
	if c.Country != "" {
		acc.countries[strings.ToUpper(c.Country)] = struct{}{}
	}

	a.LatencySum += int64(c.LatencyMs)
	a.LatencySamples++

	if HasSIPMarker(c.SIPUserAgent) || HasSIPMarker(c.SIPVia) {
		a.SIPAnomaly = true
	}
}

func (acc *accumulator) freeze() UserAggregate {
	a := acc.agg
	a.SourceIPs = sortedKeys(acc.ips)
	a.Countries = sortedKeys(acc.countries)
	return a
}

// Build folds connections into per-user aggregates. Every user gets an
// aggregate even without connections; connections referencing unknown users
// are grouped under their raw identifier.
func Build(users []models.User, connections []models.Connection) *Snapshot {
	accs := make(map[string]*accumulator, len(users))
	for _, u := range users {
		if _, ok := accs[u.Username]; ok {
			continue
		}
		acc := newAccumulator(u.Username)
		acc.agg.Known = true
		acc.agg.Country = strings.ToUpper(u.Country)
		accs[u.Username] = acc
	}

	ipUsers := make(map[string]map[string]struct{})
	for _, c := range connections {
		acc, ok := accs[c.Username]
		if !ok {
			acc = newAccumulator(c.Username)
			accs[c.Username] = acc
		}
		acc.add(c)

		if c.SourceIP == "" {
			continue
		}
		set, ok := ipUsers[c.SourceIP]
		if !ok {
			set = make(map[string]struct{})
			ipUsers[c.SourceIP] = set
		}
		set[c.Username] = struct{}{}
	}

	snap := &Snapshot{
		aggregates: make(map[string]UserAggregate, len(accs)),
		usernames:  make([]string, 0, len(accs)),
		global:     &GlobalContext{ipUsers: make(map[string][]string, len(ipUsers))},
		calls:      len(connections),
	}
	for name, acc := range accs {
		snap.aggregates[name] = acc.freeze()
		snap.usernames = append(snap.usernames, name)
	}
	sort.Strings(snap.usernames)
	for ip, set := range ipUsers {
		snap.global.ipUsers[ip] = sortedKeys(set)
	}
	return snap
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
