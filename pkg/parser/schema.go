package parser

import (
	"fmt"
	"strings"
)

// column describes one field of a table. Aliases are alternative header names
// accepted for the same field.
type column struct {
	Name     string
	Aliases  []string
	Required bool
}

// table is a named list of columns.
type table struct {
	Name    string
	Columns []column

	// OneOf lists groups where at least one column of the group is required.
	OneOf [][]string
}

var usersTable = table{
	Name: "users",
	Columns: []column{
		{Name: "id", Aliases: []string{"user_id"}},
		{Name: "username", Aliases: []string{"user", "user_name"}, Required: true},
		{Name: "email"},
		{Name: "phone"},
		{Name: "location"},
		{Name: "country"},
		{Name: "timezone"},
		{Name: "ip_address", Aliases: []string{"ip"}},
		{Name: "registration_date"},
		{Name: "status"},
	},
}

var connectionsTable = table{
	Name: "connections",
	Columns: []column{
		{Name: "id"},
		{Name: "user_id"},
		{Name: "username", Aliases: []string{"user", "user_name"}},
		{Name: "source_ip"},
		{Name: "destination"},
		{Name: "destination_ip"},
		{Name: "packet_bytes"},
		{Name: "duration", Aliases: []string{"duration_seconds"}, Required: true},
		{Name: "call_time", Aliases: []string{"call_timestamp"}, Required: true},
		{Name: "call_type"},
		{Name: "status", Required: true},
		{Name: "country"},
		{Name: "sip_user_agent"},
		{Name: "sip_via"},
		{Name: "latency_ms", Aliases: []string{"latency"}},
	},
	OneOf: [][]string{{"username", "user_id"}},
}

// SchemaError reports a required column missing from a header. It is fatal
// for the table: nothing is parsed.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.Table, e.Column)
}

// layout maps canonical column names to positions in a concrete header.
type layout struct {
	index  map[string]int
	fields int
}

// resolve matches header against t once. Header names are compared after
// trimming, lowercasing and turning spaces into underscores.
func (t table) resolve(header []string) (layout, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		name = strings.ReplaceAll(name, " ", "_")
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	l := layout{index: make(map[string]int, len(t.Columns)), fields: len(header)}
	for _, col := range t.Columns {
		for _, name := range append([]string{col.Name}, col.Aliases...) {
			if pos, ok := positions[name]; ok {
				l.index[col.Name] = pos
				break
			}
		}
		if _, ok := l.index[col.Name]; !ok && col.Required {
			return layout{}, &SchemaError{Table: t.Name, Column: col.Name}
		}
	}
	for _, group := range t.OneOf {
		found := false
		for _, name := range group {
			if l.has(name) {
				found = true
				break
			}
		}
		if !found {
			return layout{}, &SchemaError{Table: t.Name, Column: strings.Join(group, " or ")}
		}
	}
	return l, nil
}

func (l layout) has(name string) bool {
	_, ok := l.index[name]
	return ok
}

// get returns the trimmed value of a column, or "" when the column is absent.
func (l layout) get(record []string, name string) string {
	pos, ok := l.index[name]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
