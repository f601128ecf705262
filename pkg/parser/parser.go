// Package parser converts the users and connections CSV tables into typed
// records.
//
// Both tables are resolved against an explicit schema once, at header time.
// A missing required column aborts the table with *SchemaError. Rows whose
// field count does not match the header (or that are malformed CSV) are
// dropped and counted; parsing continues.
//
// Coercion rules:
//   - integers that do not parse become 0, negatives are clamped to 0
//   - timestamps that do not parse become the parse invocation time and are
//     counted in Metadata.DefaultedTimestamps
//   - missing email becomes <username>@example.com, missing phone a
//     +1-555-NNNNNNN placeholder, missing user country US
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/gokaycavdar/go-cdrguard/internal/logger"
	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

// DefaultCountry is used when a user row carries no country.
const DefaultCountry = "US"

// ErrMissingInput is returned when either table is absent or empty. Analysis
// needs both tables together.
var ErrMissingInput = errors.New("parser: both users and connections tables are required")

var timestampLayouts = []string{
	models.TimestampLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	models.DateLayout,
}

// Metadata describes what happened during a parse.
type Metadata struct {
	UserRows              int `json:"user_rows"`
	ConnectionRows        int `json:"connection_rows"`
	DroppedUserRows       int `json:"dropped_user_rows"`
	DroppedConnectionRows int `json:"dropped_connection_rows"`
	DroppedRows           int `json:"dropped_rows"`
	DefaultedTimestamps   int `json:"defaulted_timestamps"`
}

// Dataset is the typed result of a parse.
type Dataset struct {
	Users       []models.User
	Connections []models.Connection
	Metadata    Metadata
}

// Parser holds the clock used for timestamp fallback.
type Parser struct {
	Now func() time.Time
}

// New returns a Parser using the wall clock.
func New() *Parser {
	return &Parser{Now: time.Now}
}

// Parse parses both tables with a wall-clock Parser.
func Parse(usersCSV, connectionsCSV io.Reader) (*Dataset, error) {
	return New().Parse(usersCSV, connectionsCSV)
}

// Parse reads the users table and then the connections table.
func (p *Parser) Parse(usersCSV, connectionsCSV io.Reader) (*Dataset, error) {
	if usersCSV == nil || connectionsCSV == nil {
		return nil, ErrMissingInput
	}
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	now = now.UTC().Truncate(time.Second)

	ds := &Dataset{}

	userLayout, userRows, dropped, err := readTable(usersCSV, usersTable)
	if err != nil {
		return nil, err
	}
	ds.Metadata.DroppedUserRows = dropped

	seen := make(map[string]struct{}, len(userRows))
	ds.Users = make([]models.User, 0, len(userRows))
	for i, rec := range userRows {
		u, ok := p.toUser(userLayout, rec, i+1, now, &ds.Metadata)
		if !ok {
			ds.Metadata.DroppedUserRows++
			continue
		}
		if _, dup := seen[u.Username]; dup {
			ds.Metadata.DroppedUserRows++
			continue
		}
		seen[u.Username] = struct{}{}
		ds.Users = append(ds.Users, u)
	}

	byID := make(map[int]*models.User, len(ds.Users))
	byName := make(map[string]*models.User, len(ds.Users))
	for i := range ds.Users {
		byName[ds.Users[i].Username] = &ds.Users[i]
		byID[ds.Users[i].ID] = &ds.Users[i]
	}

	connLayout, connRows, dropped, err := readTable(connectionsCSV, connectionsTable)
	if err != nil {
		return nil, err
	}
	ds.Metadata.DroppedConnectionRows = dropped

	ds.Connections = make([]models.Connection, 0, len(connRows))
	for i, rec := range connRows {
		c, ok := p.toConnection(connLayout, rec, i+1, now, byID, byName, &ds.Metadata)
		if !ok {
			ds.Metadata.DroppedConnectionRows++
			continue
		}
		ds.Connections = append(ds.Connections, c)
	}

	ds.Metadata.UserRows = len(ds.Users)
	ds.Metadata.ConnectionRows = len(ds.Connections)
	ds.Metadata.DroppedRows = ds.Metadata.DroppedUserRows + ds.Metadata.DroppedConnectionRows

	if ds.Metadata.DroppedRows > 0 {
		logger.ParseLog.Warnf("dropped %d user rows and %d connection rows",
			ds.Metadata.DroppedUserRows, ds.Metadata.DroppedConnectionRows)
	}
	if ds.Metadata.DefaultedTimestamps > 0 {
		logger.ParseLog.Warnf("%d unparsable timestamps defaulted to %s",
			ds.Metadata.DefaultedTimestamps, now.Format(time.RFC3339))
	}
	logger.ParseLog.Debugf("parsed %d users, %d connections", len(ds.Users), len(ds.Connections))

	return ds, nil
}

// readTable resolves the header of r against t and returns the data rows
// whose field count matches the header.
func readTable(r io.Reader, t table) (layout, [][]string, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return layout{}, nil, 0, errors.Wrap(ErrMissingInput, t.Name)
	}
	if err != nil {
		return layout{}, nil, 0, errors.Wrapf(err, "read %s header", t.Name)
	}

	l, err := t.resolve(header)
	if err != nil {
		return layout{}, nil, 0, err
	}

	var (
		rows    [][]string
		dropped int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				logger.ParseLog.Debugf("%s: dropping malformed row at line %d: %v", t.Name, perr.Line, perr.Err)
				dropped++
				continue
			}
			return layout{}, nil, 0, errors.Wrapf(err, "read %s", t.Name)
		}
		if len(rec) != l.fields {
			logger.ParseLog.Debugf("%s: dropping row with %d fields, header has %d", t.Name, len(rec), l.fields)
			dropped++
			continue
		}
		rows = append(rows, rec)
	}
	return l, rows, dropped, nil
}

func (p *Parser) toUser(l layout, rec []string, row int, now time.Time, meta *Metadata) (models.User, bool) {
	username := l.get(rec, "username")
	if username == "" {
		return models.User{}, false
	}

	u := models.User{
		ID:        row,
		Username:  username,
		Email:     l.get(rec, "email"),
		Phone:     l.get(rec, "phone"),
		Location:  l.get(rec, "location"),
		Country:   strings.ToUpper(l.get(rec, "country")),
		Timezone:  l.get(rec, "timezone"),
		IPAddress: l.get(rec, "ip_address"),
		Status:    models.UserActive,
	}
	if l.has("id") {
		u.ID = toInt(l.get(rec, "id"))
	}
	if u.Email == "" {
		u.Email = username + "@example.com"
	}
	if u.Phone == "" {
		u.Phone = fmt.Sprintf("+1-555-%07d", row)
	}
	if u.Country == "" {
		u.Country = DefaultCountry
	}
	if strings.EqualFold(l.get(rec, "status"), string(models.UserSuspended)) {
		u.Status = models.UserSuspended
	}
	if l.has("registration_date") {
		u.RegistrationDate = parseTime(l.get(rec, "registration_date"), now, meta)
	}
	return u, true
}

func (p *Parser) toConnection(l layout, rec []string, row int, now time.Time,
	byID map[int]*models.User, byName map[string]*models.User, meta *Metadata) (models.Connection, bool) {

	username := l.get(rec, "username")
	rawUserID := l.get(rec, "user_id")
	if username == "" && rawUserID == "" {
		return models.Connection{}, false
	}
	userID := toInt(rawUserID)

	var owner *models.User
	switch {
	case username != "":
		owner = byName[username]
	case rawUserID != "":
		if u, ok := byID[userID]; ok && userID != 0 {
			owner = u
			username = u.Username
		} else {
			// Orphan: grouped under the identifier found in the file.
			username = rawUserID
		}
	}
	if rawUserID == "" && owner != nil {
		userID = owner.ID
	}

	c := models.Connection{
		ID:              row,
		UserID:          userID,
		Username:        username,
		SourceIP:        l.get(rec, "source_ip"),
		Destination:     l.get(rec, "destination"),
		DestinationIP:   l.get(rec, "destination_ip"),
		PacketBytes:     int64(toInt(l.get(rec, "packet_bytes"))),
		DurationSeconds: toInt(l.get(rec, "duration")),
		CallTimestamp:   parseTime(l.get(rec, "call_time"), now, meta),
		CallType:        models.CallType(strings.ToLower(l.get(rec, "call_type"))),
		Status:          models.CallStatus(strings.ToLower(l.get(rec, "status"))),
		Country:         strings.ToUpper(l.get(rec, "country")),
		SIPUserAgent:    l.get(rec, "sip_user_agent"),
		SIPVia:          l.get(rec, "sip_via"),
		LatencyMs:       toInt(l.get(rec, "latency_ms")),
	}
	if l.has("id") {
		c.ID = toInt(l.get(rec, "id"))
	}
	if c.CallType == "" {
		c.CallType = models.CallAudio
	}
	if !l.has("country") {
		c.Country = DefaultCountry
		if owner != nil {
			c.Country = owner.Country
		}
	}
	return c, true
}

// toInt parses a base-10 integer, tolerating a trailing ".0" from
// spreadsheet exports. Failures and negatives become 0.
func toInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		n = int(f)
	}
	if n < 0 {
		return 0
	}
	return n
}

func parseTime(s string, now time.Time, meta *Metadata) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	meta.DefaultedTimestamps++
	return now
}
