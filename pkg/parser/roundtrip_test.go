package parser_test

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/gokaycavdar/go-cdrguard/pkg/generator"
	"github.com/gokaycavdar/go-cdrguard/pkg/parser"
)

func TestGeneratorRoundTrip(t *testing.T) {
	ds, err := generator.Generate(generator.Config{
		NumUsers:           25,
		NumSuspiciousUsers: 10,
		TimeRangeDays:      14,
		EnableVPNPatterns:  true,
		Seed:               77,
		End:                time.Date(2024, 6, 30, 18, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var users, conns bytes.Buffer
	if err := generator.WriteUsersCSV(&users, ds.Users); err != nil {
		t.Fatalf("WriteUsersCSV: %v", err)
	}
	if err := generator.WriteConnectionsCSV(&conns, ds.Connections); err != nil {
		t.Fatalf("WriteConnectionsCSV: %v", err)
	}

	parsed, err := parser.Parse(&users, &conns)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Metadata.DroppedRows != 0 || parsed.Metadata.DefaultedTimestamps != 0 {
		t.Errorf("lossy parse: %+v", parsed.Metadata)
	}

	if !reflect.DeepEqual(parsed.Users, ds.Users) {
		for i := range ds.Users {
			if !reflect.DeepEqual(parsed.Users[i], ds.Users[i]) {
				t.Fatalf("user %d differs:\n%s\nwant\n%s", i, spew.Sdump(parsed.Users[i]), spew.Sdump(ds.Users[i]))
			}
		}
		t.Fatal("users differ")
	}
	if len(parsed.Connections) != len(ds.Connections) {
		t.Fatalf("connections = %d, want %d", len(parsed.Connections), len(ds.Connections))
	}
	for i := range ds.Connections {
		if !reflect.DeepEqual(parsed.Connections[i], ds.Connections[i]) {
			t.Fatalf("connection %d differs:\n%s\nwant\n%s", i, spew.Sdump(parsed.Connections[i]), spew.Sdump(ds.Connections[i]))
		}
	}
}
