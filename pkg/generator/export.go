package generator

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

// WriteUsersCSV writes users with the models.UserColumns header.
func WriteUsersCSV(w io.Writer, users []models.User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.UserColumns); err != nil {
		return errors.Wrap(err, "write users header")
	}
	for _, u := range users {
		record := []string{
			strconv.Itoa(u.ID),
			u.Username,
			u.Email,
			u.Phone,
			u.Location,
			u.Country,
			u.Timezone,
			u.IPAddress,
			u.RegistrationDate.UTC().Format(models.DateLayout),
			string(u.Status),
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write user %s", u.Username)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush users")
}

// WriteConnectionsCSV writes connections with the models.ConnectionColumns header.
func WriteConnectionsCSV(w io.Writer, conns []models.Connection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.ConnectionColumns); err != nil {
		return errors.Wrap(err, "write connections header")
	}
	for _, c := range conns {
		record := []string{
			strconv.Itoa(c.ID),
			strconv.Itoa(c.UserID),
			c.Username,
			c.SourceIP,
			c.Destination,
			c.DestinationIP,
			strconv.FormatInt(c.PacketBytes, 10),
			strconv.Itoa(c.DurationSeconds),
			c.CallTimestamp.UTC().Format(models.TimestampLayout),
			string(c.CallType),
			string(c.Status),
			c.Country,
			c.SIPUserAgent,
			c.SIPVia,
			strconv.Itoa(c.LatencyMs),
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write connection %d", c.ID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush connections")
}

// WriteMetadataYAML writes the ground-truth labels of a run.
func WriteMetadataYAML(w io.Writer, meta Metadata) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return errors.Wrap(err, "encode metadata")
	}
	return errors.Wrap(enc.Close(), "close metadata encoder")
}

// ReadMetadataYAML is the inverse of WriteMetadataYAML.
func ReadMetadataYAML(r io.Reader) (Metadata, error) {
	var meta Metadata
	if err := yaml.NewDecoder(r).Decode(&meta); err != nil {
		return Metadata{}, errors.Wrap(err, "decode metadata")
	}
	return meta, nil
}
