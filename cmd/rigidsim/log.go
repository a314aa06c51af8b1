package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var log = logrus.WithField("component", "cmd")

const (
	dataKey      = "data"
	logLevelKey  = "log_level"
	logFormatKey = "log_format"

	logLevelOff = "off"
)

var expectedLogFormats = []string{"text", "json"}

var expectedLogLevels = []string{
	logrus.TraceLevel.String(),
	logrus.DebugLevel.String(),
	logrus.InfoLevel.String(),
	logrus.WarnLevel.String(),
	logrus.ErrorLevel.String(),
	logLevelOff,
}

// configureLog applies the log format and level held by cfg to the
// standard logrus logger.
func configureLog(cfg *viper.Viper) error {
	format := cfg.GetString(logFormatKey)
	if !slices.Contains(expectedLogFormats, format) {
		return fmt.Errorf("invalid log format specified %q expecting one of %v", format, expectedLogFormats)
	}
	switch format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	level := cfg.GetString(logLevelKey)
	if level == logLevelOff {
		logrus.SetOutput(io.Discard)
		return nil
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level specified %q expecting one of %v", level, expectedLogLevels)
	}
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(parsed)
	return nil
}
