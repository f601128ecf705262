package rules

import (
	"fmt"
	"testing"
	"time"

	"github.com/gokaycavdar/go-cdrguard/pkg/aggregate"
	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

var base = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func calls(user string, n int, mutate func(i int, c *models.Connection)) []models.Connection {
	out := make([]models.Connection, n)
	for i := range out {
		out[i] = models.Connection{
			Username:        user,
			SourceIP:        "10.1.0." + user,
			DurationSeconds: 120,
			CallTimestamp:   base.Add(10 * time.Hour),
			Status:          models.CallCompleted,
			Country:         "US",
			LatencyMs:       30,
		}
		if mutate != nil {
			mutate(i, &out[i])
		}
	}
	return out
}

func TestRules_Check(t *testing.T) {
	tests := []struct {
		name      string
		rule      Rule
		agg       aggregate.UserAggregate
		wantFire  bool
		wantCount int
	}{
		{"frequency at limit", NewHighFrequencyRule(100), aggregate.UserAggregate{TotalCalls: 100}, false, 0},
		{"frequency above limit", NewHighFrequencyRule(100), aggregate.UserAggregate{TotalCalls: 101}, true, 101},
		{"no very short calls", NewVeryShortCallsRule(), aggregate.UserAggregate{ShortCalls: 4}, false, 0},
		{"very short calls", NewVeryShortCallsRule(), aggregate.UserAggregate{VeryShortCalls: 3}, true, 3},
		{"odd hours", NewOddHourRule(), aggregate.UserAggregate{OddHourCalls: 7}, true, 7},
		{"failed", NewFailedConnectionsRule(), aggregate.UserAggregate{FailedCalls: 2}, true, 2},
		{"no failed", NewFailedConnectionsRule(), aggregate.UserAggregate{TotalCalls: 9}, false, 0},
		{"vpn countries", DefaultVPNDetectionRule(), aggregate.UserAggregate{TotalCalls: 3, Countries: []string{"A", "B", "C"}}, true, 1},
		{"vpn two countries", DefaultVPNDetectionRule(), aggregate.UserAggregate{TotalCalls: 3, Countries: []string{"A", "B"}}, false, 0},
		{"vpn latency", DefaultVPNDetectionRule(), aggregate.UserAggregate{TotalCalls: 2, LatencySum: 250, LatencySamples: 2}, true, 1},
		{"vpn latency at limit", DefaultVPNDetectionRule(), aggregate.UserAggregate{TotalCalls: 2, LatencySum: 240, LatencySamples: 2}, false, 0},
		{"vpn sip", DefaultVPNDetectionRule(), aggregate.UserAggregate{TotalCalls: 1, SIPAnomaly: true}, true, 1},
		{"vpn without calls", DefaultVPNDetectionRule(), aggregate.UserAggregate{SIPAnomaly: true}, false, 0},
		{"blocked country", NewBlockedCountryRule(), aggregate.UserAggregate{Known: true, Country: "KP"}, true, 1},
		{"allowed country", NewBlockedCountryRule(), aggregate.UserAggregate{Known: true, Country: "CA"}, false, 0},
		{"orphan", NewBlockedCountryRule(), aggregate.UserAggregate{Countries: []string{"RU"}}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.rule.Check(tt.agg, nil)
			if f.Triggered != tt.wantFire || f.Count != tt.wantCount {
				t.Errorf("Check = %+v, want triggered=%t count=%d", f, tt.wantFire, tt.wantCount)
			}
		})
	}
}

func TestIsBlockedCountry(t *testing.T) {
	for _, code := range BlockedCountries {
		if !IsBlockedCountry(code) {
			t.Errorf("%s should be blocked", code)
		}
	}
	for _, code := range []string{"", "US", "DE", "ru"} {
		want := code == "ru"
		if got := IsBlockedCountry(code); got != want {
			t.Errorf("IsBlockedCountry(%q) = %t, want %t", code, got, want)
		}
	}
}

func TestDefaultRegistryOrder(t *testing.T) {
	want := []string{
		"High Call Frequency",
		"Very Short Calls",
		"Odd Hour Activity",
		"Failed Connections",
		"Unusual IP Fan-out",
		"VPN Detection",
		"Blocked Country",
	}
	reg := Default()
	if reg.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", reg.Len(), len(want))
	}
	for i, r := range reg.Rules() {
		if r.Name() != want[i] {
			t.Errorf("rule %d = %q, want %q", i, r.Name(), want[i])
		}
		if r.Description() == "" {
			t.Errorf("rule %q has no description", r.Name())
		}
	}
}

func TestSummarize(t *testing.T) {
	users := []models.User{
		{Username: "heavy1", Country: "RU"},
		{Username: "heavy2", Country: "CN"},
		{Username: "prober", Country: "US"},
		{Username: "clean", Country: "US"},
	}
	var conns []models.Connection
	conns = append(conns, calls("heavy1", 150, nil)...)
	conns = append(conns, calls("heavy2", 120, func(i int, c *models.Connection) {
		if i < 4 {
			c.DurationSeconds = 2
		}
	})...)
	conns = append(conns, calls("prober", 10, func(i int, c *models.Connection) {
		if i%2 == 0 {
			c.Status = models.CallFailed
		}
		if i < 3 {
			c.CallTimestamp = base.Add(3 * time.Hour)
		}
	})...)
	conns = append(conns, calls("clean", 5, nil)...)
	// Seven orphaned users behind one address.
	for i := 0; i < 7; i++ {
		conns = append(conns, calls(fmt.Sprintf("shared%d", i), 1, func(_ int, c *models.Connection) {
			c.SourceIP = "198.51.100.7"
		})...)
	}

	got := Default().Summarize(aggregate.Build(users, conns))
	want := map[string]struct {
		triggered bool
		count     int
	}{
		"High Call Frequency": {true, 2},
		"Very Short Calls":    {true, 4},
		"Odd Hour Activity":   {true, 3},
		"Failed Connections":  {true, 5},
		"Unusual IP Fan-out":  {true, 7},
		"VPN Detection":       {false, 0},
		"Blocked Country":     {true, 2},
	}
	for _, s := range got {
		w := want[s.Name]
		if s.Triggered != w.triggered || s.Count != w.count {
			t.Errorf("%s: triggered=%t count=%d, want triggered=%t count=%d",
				s.Name, s.Triggered, s.Count, w.triggered, w.count)
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	for _, s := range Default().Summarize(aggregate.Build(nil, nil)) {
		if s.Triggered || s.Count != 0 {
			t.Errorf("%s triggered on empty dataset", s.Name)
		}
	}
}
