// Package commands holds the buildergen subcommands.
package commands

import (
	"github.com/teranos/buildergen/config"
	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/logger"
)

// ErrOutOfDate is returned by check when builders would change. It is
// reported through the exit code only.
var ErrOutOfDate = errors.New("builders are out of date")

var (
	cfg        *config.Loaded
	configFile string
)

// Setup loads the configuration and initializes the logger. Flag values
// raise, never lower, what the config asks for.
func Setup(file string, verbosity int, logJSON bool) error {
	configFile = file
	loaded, err := config.Load(config.Options{File: file})
	if err != nil {
		// the logger still has to come up so the failure can be reported
		_ = logger.Initialize(logJSON, verbosity)
		return errors.Wrap(err, "failed to load config")
	}
	cfg = loaded

	if verbosity < cfg.Log.Verbosity {
		verbosity = cfg.Log.Verbosity
	}
	if err := logger.Initialize(logJSON || cfg.Log.JSON, verbosity); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	logger.Debugw("config loaded", logger.FieldPath, cfg.Sources)
	return nil
}
