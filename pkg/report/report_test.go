package report

import (
	"reflect"
	"strings"
	"testing"

	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

func profile(name string, score int, reasons ...string) models.UserRiskProfile {
	return models.UserRiskProfile{
		Username:        name,
		SuspiciousScore: score,
		RiskLevel:       models.LevelFor(score),
		Reasons:         reasons,
	}
}

func TestRank(t *testing.T) {
	in := []models.UserRiskProfile{
		profile("carol", 5),
		profile("bob", 9),
		profile("alice", 5),
		profile("dave", 0),
		profile("erin", 9),
	}
	got := Rank(in)

	var order []string
	for _, p := range got {
		order = append(order, p.Username)
	}
	want := []string{"bob", "erin", "alice", "carol", "dave"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
	if in[0].Username != "carol" {
		t.Error("Rank must not reorder its input")
	}
}

func TestAssemble(t *testing.T) {
	summaries := []models.RuleSummary{
		{Name: "High Call Frequency", Triggered: true, Count: 3},
		{Name: "Very Short Calls", Triggered: true, Count: 40},
		{Name: "Odd Hour Activity"},
	}
	profiles := []models.UserRiskProfile{
		profile("u1", 0),
		profile("u2", 12, "Blocked Country (RU)"),
		profile("u3", 3),
		profile("u4", 12, "Blocked Country (CN)"),
		profile("u5", 6),
	}

	res := Assemble(Totals{Users: 5, Connections: 700}, summaries, profiles)

	if res.TotalUsers != 5 || res.TotalConnections != 700 {
		t.Errorf("totals = %d/%d", res.TotalUsers, res.TotalConnections)
	}
	if res.SuspiciousUserCount != 4 {
		t.Errorf("suspicious users = %d, want 4", res.SuspiciousUserCount)
	}
	if res.SuspiciousConnectionCount != 43 {
		t.Errorf("suspicious connections = %d, want 43", res.SuspiciousConnectionCount)
	}
	if !reflect.DeepEqual(res.Rules, summaries) {
		t.Errorf("rules = %+v", res.Rules)
	}

	var top []string
	for _, p := range res.TopSuspicious {
		top = append(top, p.Username)
	}
	if !reflect.DeepEqual(top, []string{"u2", "u4", "u5"}) {
		t.Errorf("top = %v", top)
	}
}

func TestAssemble_FewerThanTopN(t *testing.T) {
	res := Assemble(Totals{Users: 3}, nil, []models.UserRiskProfile{
		profile("a", 0), profile("b", 2), profile("c", 0),
	})
	if len(res.TopSuspicious) != 1 || res.TopSuspicious[0].Username != "b" {
		t.Errorf("top = %+v", res.TopSuspicious)
	}
	if res.Rules == nil || res.TopSuspicious == nil {
		t.Error("slices should be non-nil for stable JSON")
	}
}

func TestAlerts(t *testing.T) {
	res := Assemble(Totals{}, nil, []models.UserRiskProfile{
		profile("x", 14, "Blocked Country (IR)", "High Call Frequency (150 calls)"),
		profile("y", 1),
	})
	alerts := Alerts(res)
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(alerts))
	}
	a := alerts[0]
	if a.Username != "x" || a.Score != 14 || a.RiskLevel != models.RiskHigh {
		t.Errorf("alert = %+v", a)
	}
	if !strings.Contains(a.Message, "Blocked Country (IR); High Call Frequency (150 calls)") {
		t.Errorf("message = %q", a.Message)
	}
	if Alerts(nil) != nil {
		t.Error("nil result should give nil alerts")
	}
}
