package config

import (
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/fileutils"
)

// geoIPConf points to a MaxMind country database used to enrich usage
// records. Leaving database empty disables the lookup.
type geoIPConf struct {
	Database string `yaml:"database"`
}

func (c *geoIPConf) validate() error {
	if c.Database != "" && !fileutils.FileExists(c.Database) {
		return errors.Errorf("geoip database '%s' does not exist", c.Database)
	}
	return nil
}

type usageConf struct {
	// Buffer is the number of usage events queued for the background writer
	Buffer int `yaml:"buffer"`
}

var defaultUsageConf = usageConf{
	Buffer: 256,
}
