package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DriverType names a supported database
type DriverType string

// Supported drivers
const (
	DriverSQLite   DriverType = "sqlite"
	DriverMySQL    DriverType = "mysql"
	DriverPostgres DriverType = "postgres"
)

// DefaultSQLiteFile is the database file created inside Config.DataDir
const DefaultSQLiteFile = "scriptsmgr.db"

const slowQueryThreshold = 500 * time.Millisecond

// SupportedDrivers lists the DriverTypes Connect accepts
var SupportedDrivers = []DriverType{
	DriverSQLite,
	DriverMySQL,
	DriverPostgres,
}

var defaultPorts = map[DriverType]int{
	DriverMySQL:    3306,
	DriverPostgres: 5432,
}

// DSNConf holds the connection parameters used to build a MySQL or
// PostgreSQL dsn with DSN.
type DSNConf struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"db"`
}

// DSN builds the connection string for driver. SQLite has none; its file
// lives in Config.DataDir.
func DSN(driver DriverType, conf DSNConf) (string, error) {
	if conf.Port == 0 {
		conf.Port = defaultPorts[driver]
	}
	switch driver {
	case DriverMySQL:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True",
			conf.User, conf.Password, conf.Host, conf.Port, conf.DB,
		), nil
	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%d",
			conf.Host, conf.User, conf.Password, conf.DB, conf.Port,
		), nil
	case DriverSQLite:
		return "", errors.Errorf("driver %s does not use dsn", driver)
	default:
		return "", errors.Errorf("unsupported driver '%s'", driver)
	}
}

// Config selects and tunes the database
type Config struct {
	Driver DriverType `yaml:"driver"`
	// DSN is the driver's connection string; for sqlite an optional file path
	DSN string `yaml:"dsn"`
	// DataDir holds the sqlite file when DSN is empty
	DataDir string `yaml:"data_dir"`
	// Debug logs every statement
	Debug bool `yaml:"debug"`
	// MaxOpenConns limits the pool; 0 keeps the driver default
	MaxOpenConns int `yaml:"max_open_conns"`
	// ConnMaxLifetime recycles pooled connections; 0 keeps them forever
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (cfg Config) dialector() (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
				return nil, errors.Wrap(err, "could not create data directory")
			}
			dsn = filepath.Join(cfg.DataDir, DefaultSQLiteFile)
		}
		return sqlite.Open(dsn), nil
	case DriverMySQL:
		return mysql.Open(cfg.DSN), nil
	case DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, errors.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func (cfg Config) gormLogger() logger.Interface {
	level := logger.Warn
	if cfg.Debug {
		level = logger.Info
	}
	return logger.New(
		log.StandardLogger(), logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// Connect opens the configured database and applies the pool settings
func Connect(cfg Config) (*gorm.DB, error) {
	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: cfg.gormLogger()})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "could not access connection pool")
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}
