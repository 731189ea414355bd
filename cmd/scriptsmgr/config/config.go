// Package config loads the scriptsmgr configuration from yaml and the
// environment.
package config

import (
	"os"
	"strings"

	"github.com/fatih/structs"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/scriptsmgr/scriptsmgr"
)

// Environment variables overriding the config file
const (
	EnvConfigFile    = "SCRIPTSMGR_CONFIG"
	EnvAdminPassword = "ADMIN_PASSWORD"
	EnvJWTSecret     = "JWT_SECRET"
	EnvAppURL        = "APP_URL"
	EnvNodeEnv       = "NODE_ENV"
)

// DefaultAppURL is used when neither config nor environment set one
const DefaultAppURL = "http://localhost:3000"

var possibleConfigLocations = []string{
	"config.yaml",
	"/etc/scriptsmgr/config.yaml",
}

// Config holds the complete configuration
type Config struct {
	Server  scriptsmgr.ServerConf `yaml:"server"`
	AppURL  string                `yaml:"app_url"`
	Auth    authConf              `yaml:"auth"`
	Storage storageConf           `yaml:"storage"`
	Files   filesConf             `yaml:"files"`
	Caching cachingConf           `yaml:"caching"`
	GeoIP   geoIPConf             `yaml:"geoip"`
	Usage   usageConf             `yaml:"usage"`
	Logging loggingConf           `yaml:"logging"`
}

var c *Config

// Get returns the loaded Config
func Get() Config {
	if c == nil {
		return Config{}
	}
	return *c
}

func defaultConfig() Config {
	return Config{
		Server:  defaultServerConf,
		AppURL:  DefaultAppURL,
		Auth:    defaultAuthConf,
		Storage: defaultStorageConf,
		Files:   defaultFilesConf,
		Caching: defaultCachingConf,
		Usage:   defaultUsageConf,
		Logging: defaultLoggingConf,
	}
}

var defaultServerConf = scriptsmgr.ServerConf{
	Port: 3000,
}

// Load reads the config file, applies environment overrides and validates
// the result. Without a filename the SCRIPTSMGR_CONFIG variable and the
// default locations are tried; finding no file is not an error.
func Load(filename string) error {
	data, err := readConfigFile(filename)
	if err != nil {
		return err
	}
	conf, err := parse(data, os.Getenv)
	if err != nil {
		return err
	}
	c = conf
	return nil
}

func readConfigFile(filename string) ([]byte, error) {
	if filename == "" {
		filename = os.Getenv(EnvConfigFile)
	}
	if filename != "" {
		data, err := os.ReadFile(filename)
		return data, errors.Wrapf(err, "could not read config file '%s'", filename)
	}
	for _, loc := range possibleConfigLocations {
		if fileutils.FileExists(loc) {
			data, err := os.ReadFile(loc)
			return data, errors.Wrapf(err, "could not read config file '%s'", loc)
		}
	}
	return nil, nil
}

func parse(data []byte, getenv func(string) string) (*Config, error) {
	conf := defaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &conf); err != nil {
			return nil, errors.Wrap(err, "could not parse config")
		}
	}
	conf.applyEnv(getenv)
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (conf *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvAdminPassword); v != "" {
		conf.Auth.AdminPassword = v
	}
	if v := getenv(EnvJWTSecret); v != "" {
		conf.Auth.JWTSecret = v
	}
	if v := getenv(EnvAppURL); v != "" {
		conf.AppURL = v
	}
	if strings.EqualFold(getenv(EnvNodeEnv), "production") {
		conf.Server.Production = true
	}
}

func (conf *Config) validate() error {
	if conf.Server.Port <= 0 {
		conf.Server.Port = defaultServerConf.Port
	}
	if conf.AppURL == "" {
		conf.AppURL = DefaultAppURL
	}
	conf.AppURL = strings.TrimSuffix(conf.AppURL, "/")
	if err := conf.Auth.validate(); err != nil {
		return errors.WithMessage(err, "error in auth conf")
	}
	if err := conf.Storage.validate(); err != nil {
		return errors.WithMessage(err, "error in storage conf")
	}
	if err := conf.Files.validate(); err != nil {
		return errors.WithMessage(err, "error in files conf")
	}
	if err := conf.GeoIP.validate(); err != nil {
		return errors.WithMessage(err, "error in geoip conf")
	}
	if err := conf.Logging.validate(); err != nil {
		return errors.WithMessage(err, "error in logging conf")
	}
	return nil
}

// LogFields returns the configuration as log fields with secrets redacted
func (conf Config) LogFields() log.Fields {
	conf.Auth.AdminPassword = redact(conf.Auth.AdminPassword)
	conf.Auth.JWTSecret = redact(conf.Auth.JWTSecret)
	conf.Storage.Password = redact(conf.Storage.Password)
	conf.Storage.DSN = redact(conf.Storage.DSN)
	conf.Caching.Password = redact(conf.Caching.Password)
	conf.Files.S3.SecretKey = redact(conf.Files.S3.SecretKey)
	s := structs.New(conf)
	s.TagName = "yaml"
	return s.Map()
}

func redact(v string) string {
	if v == "" {
		return ""
	}
	return "***"
}
