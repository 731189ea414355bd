// Package geoip resolves client addresses to country codes using a MaxMind
// database.
package geoip

import (
	"net"
	"strings"

	"github.com/oschwald/maxminddb-golang"
	"github.com/pkg/errors"
)

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Locator looks up the country of an ip address. A nil *Locator is usable and
// never finds anything.
type Locator struct {
	db *maxminddb.Reader
}

// Open opens the database at path
func Open(path string) (*Locator, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "geoip: could not open database")
	}
	return &Locator{db: db}, nil
}

// Country returns the ISO country code for ip, or "" if unknown.
// A comma separated forwarding chain is reduced to its first entry.
func (l *Locator) Country(ip string) string {
	if l == nil || l.db == nil {
		return ""
	}
	if i := strings.IndexByte(ip, ','); i >= 0 {
		ip = ip[:i]
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return ""
	}
	var rec countryRecord
	if err := l.db.Lookup(parsed, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// Close closes the database
func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
