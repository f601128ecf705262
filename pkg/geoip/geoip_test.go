package geoip

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

type fakeLookup struct {
	codes map[string]string
	calls int
}

func (f *fakeLookup) CountryCode(ip string) (string, error) {
	f.calls++
	if code, ok := f.codes[ip]; ok {
		return code, nil
	}
	return "", errors.Errorf("no record for %s", ip)
}

func TestEnrich(t *testing.T) {
	conns := []models.Connection{
		{ID: 1, SourceIP: "185.220.101.42"},
		{ID: 2, SourceIP: "185.220.101.42"},
		{ID: 3, SourceIP: "8.8.8.8", Country: "US"},
		{ID: 4, SourceIP: "192.0.2.1"},
		{ID: 5},
	}
	lookup := &fakeLookup{codes: map[string]string{"185.220.101.42": "DE", "8.8.8.8": "XX"}}

	out, filled := Enrich(conns, lookup)

	if filled != 2 {
		t.Errorf("filled = %d, want 2", filled)
	}
	want := []string{"DE", "DE", "US", "", ""}
	for i, c := range out {
		if c.Country != want[i] {
			t.Errorf("connection %d country = %q, want %q", c.ID, c.Country, want[i])
		}
	}
	if lookup.calls != 2 {
		t.Errorf("lookups = %d, want 2 (one per distinct empty-country ip)", lookup.calls)
	}
	if conns[0].Country != "" {
		t.Error("Enrich must not modify its input")
	}
}

func TestEnrich_NilLookup(t *testing.T) {
	conns := []models.Connection{{ID: 1, SourceIP: "1.1.1.1"}}
	out, filled := Enrich(conns, nil)
	if filled != 0 || len(out) != 1 || out[0].Country != "" {
		t.Errorf("out=%+v filled=%d", out, filled)
	}
}

func TestNewService_MissingDatabase(t *testing.T) {
	if _, err := NewService("testdata/does-not-exist.mmdb"); err == nil {
		t.Error("expected error for missing database")
	}
}
