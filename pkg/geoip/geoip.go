// Package geoip resolves source IPs to ISO country codes from a MaxMind
// country (or city) database.
package geoip

import (
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/pkg/errors"

	"github.com/gokaycavdar/go-cdrguard/internal/logger"
	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

// CountryLookup resolves an IP address to an ISO country code.
type CountryLookup interface {
	CountryCode(ip string) (string, error)
}

// Service wraps a GeoIP2 reader.
type Service struct {
	reader *geoip2.Reader
}

// NewService opens the .mmdb file at path.
func NewService(path string) (*Service, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open geoip database %s", path)
	}
	return &Service{reader: reader}, nil
}

// Close releases the database.
func (s *Service) Close() {
	if s.reader != nil {
		s.reader.Close()
	}
}

// CountryCode returns the uppercase ISO code of ip, or "" when the database
// has no country for it.
func (s *Service) CountryCode(ipAddress string) (string, error) {
	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return "", errors.Errorf("invalid ip address: %q", ipAddress)
	}
	record, err := s.reader.Country(ip)
	if err != nil {
		return "", errors.Wrapf(err, "lookup %s", ipAddress)
	}
	return strings.ToUpper(record.Country.IsoCode), nil
}

// Enrich returns a copy of conns where connections with an empty country get
// the country of their source IP. Lookup failures leave the country empty.
// The second return value is the number of connections filled.
func Enrich(conns []models.Connection, lookup CountryLookup) ([]models.Connection, int) {
	out := make([]models.Connection, len(conns))
	copy(out, conns)
	if lookup == nil {
		return out, 0
	}

	cache := make(map[string]string)
	filled := 0
	for i := range out {
		c := &out[i]
		if c.Country != "" || c.SourceIP == "" {
			continue
		}
		code, ok := cache[c.SourceIP]
		if !ok {
			var err error
			code, err = lookup.CountryCode(c.SourceIP)
			if err != nil {
				logger.GeoLog.Debugf("no country for %s: %v", c.SourceIP, err)
			}
			cache[c.SourceIP] = code
		}
		if code != "" {
			c.Country = code
			filled++
		}
	}
	if filled > 0 {
		logger.GeoLog.Infof("filled country of %d connections from geoip", filled)
	}
	return out, filled
}
