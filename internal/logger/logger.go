// Package logger configures logrus and the http access log.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Log file names inside the configured directories
const (
	InternalLogFile = "scriptsmgr.log"
	AccessLogFile   = "access.log"
)

// OutputConf selects where a log is written. Without a directory the log goes
// to stderr.
type OutputConf struct {
	Dir    string `yaml:"dir"`
	StdErr bool   `yaml:"stderr"`
}

// InternalConf configures the application log
type InternalConf struct {
	OutputConf `yaml:",inline"`
	Level      string `yaml:"level"`
}

// Conf is the logging configuration
type Conf struct {
	Access   OutputConf   `yaml:"access"`
	Internal InternalConf `yaml:"internal"`
}

var (
	mu           sync.Mutex
	accessWriter io.Writer = os.Stderr
	openFiles    []*os.File
)

// Init applies conf to the standard logrus logger and prepares the access
// log writer
func Init(conf Conf) error {
	mu.Lock()
	defer mu.Unlock()
	closeFiles()

	level := log.InfoLevel
	if conf.Internal.Level != "" {
		var err error
		level, err = log.ParseLevel(strings.ToLower(conf.Internal.Level))
		if err != nil {
			return errors.Wrap(err, "logger: invalid level")
		}
	}
	log.SetLevel(level)
	log.SetFormatter(
		&log.TextFormatter{
			FullTimestamp: true,
		},
	)

	internal, err := output(conf.Internal.OutputConf, InternalLogFile)
	if err != nil {
		return err
	}
	log.SetOutput(internal)

	access, err := output(conf.Access, AccessLogFile)
	if err != nil {
		return err
	}
	accessWriter = access
	return nil
}

func output(conf OutputConf, name string) (io.Writer, error) {
	if conf.Dir == "" {
		return os.Stderr, nil
	}
	f, err := os.OpenFile(filepath.Join(conf.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return nil, errors.Wrapf(err, "logger: could not open %s", name)
	}
	openFiles = append(openFiles, f)
	if conf.StdErr {
		return io.MultiWriter(f, os.Stderr), nil
	}
	return f, nil
}

func closeFiles() {
	for _, f := range openFiles {
		_ = f.Close()
	}
	openFiles = nil
}

// AccessWriter returns the writer for http access logs
func AccessWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return accessWriter
}

// Close closes log files opened by Init and resets output to stderr
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeFiles()
	accessWriter = os.Stderr
	log.SetOutput(os.Stderr)
}
