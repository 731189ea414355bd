package config

import (
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/fileutils"

	"github.com/scriptsmgr/scriptsmgr/internal/logger"
)

// loggingConf holds all logging-related configuration under the `logging` key.
//
// YAML example:
//
//	logging:
//	  access:
//	    dir: /var/log/scriptsmgr
//	    stderr: false
//	  internal:
//	    dir: /var/log/scriptsmgr
//	    stderr: true
//	    level: INFO
type loggingConf struct {
	logger.Conf `yaml:",inline"`
}

func checkLoggingDirExists(dir string) error {
	if dir != "" && !fileutils.FileExists(dir) {
		return errors.Errorf("logging directory '%s' does not exist", dir)
	}
	return nil
}

func (log *loggingConf) validate() error {
	if err := checkLoggingDirExists(log.Access.Dir); err != nil {
		return err
	}
	return checkLoggingDirExists(log.Internal.Dir)
}

var defaultLoggingConf = loggingConf{
	Conf: logger.Conf{
		Internal: logger.InternalConf{
			Level: "INFO",
		},
	},
}
