package config

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/duration"

	"github.com/scriptsmgr/scriptsmgr/storage"
)

type storageConf struct {
	Driver          storage.DriverType      `yaml:"driver"`
	DataDir         string                  `yaml:"data_dir"`
	DSN             string                  `yaml:"dsn"`
	storage.DSNConf `yaml:",inline"`
	Debug           bool                    `yaml:"debug"`
	MaxOpenConns    int                     `yaml:"max_open_conns"`
	ConnMaxLifetime duration.DurationOption `yaml:"conn_max_lifetime"`
}

func (c *storageConf) validate() error {
	if c.MaxOpenConns < 0 {
		return errors.New("max_open_conns must not be negative")
	}
	if c.Driver == storage.DriverSQLite {
		if c.DataDir == "" {
			return errors.New("data_dir must be specified")
		}
		return nil
	}
	var err error
	if c.DSN == "" {
		c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
	}
	return err
}

var defaultStorageConf = storageConf{
	Driver:  storage.DriverSQLite,
	DataDir: "data",
	DSNConf: storage.DSNConf{
		User: "scriptsmgr",
		Host: "localhost",
		DB:   "scriptsmgr",
	},
	Debug: false,
}

// LoadStorage connects to the configured database
func LoadStorage(c storageConf) (*storage.Storage, error) {
	warehouse, err := storage.NewStorage(
		storage.Config{
			Driver:          c.Driver,
			DSN:             c.DSN,
			DataDir:         c.DataDir,
			Debug:           c.Debug,
			MaxOpenConns:    c.MaxOpenConns,
			ConnMaxLifetime: c.ConnMaxLifetime.Duration(),
		},
	)
	if err != nil {
		return nil, err
	}
	log.WithField("driver", c.Driver).Info("Loaded storage backend")
	return warehouse, nil
}
