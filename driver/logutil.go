package driver

import (
	"github.com/pingcap/log"
)

// InitLogger initializes the process-global logger from the config.
func InitLogger(cfg *Config) error {
	logger, props, err := log.InitLogger(&log.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File: log.FileLogConfig{
			Filename: cfg.LogFile,
		},
	})
	if err != nil {
		return err
	}
	log.ReplaceGlobals(logger, props)
	return nil
}
