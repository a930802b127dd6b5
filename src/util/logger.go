package util

import (
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
)

// InitLogger replaces the global logger. An empty file logs to stderr.
func InitLogger(level, file string) error {
	if level == "" {
		level = "info"
	}
	cfg := &log.Config{
		Level: level,
		File:  log.FileLogConfig{Filename: file},
	}
	logger, props, err := log.InitLogger(cfg)
	if err != nil {
		return errors.Annotatef(err, "init logger at level %s", level)
	}
	log.ReplaceGlobals(logger, props)
	return nil
}
