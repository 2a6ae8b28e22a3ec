package config

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. format is "json" or "text".
func NewLogger(level, format string) (*logrus.Logger, error) {
	return newLogger(os.Stdout, level, format)
}

func newLogger(out io.Writer, level, format string) (*logrus.Logger, error) {
	logg := logrus.New()
	logg.SetOutput(out)

	switch format {
	case "", "json":
		logg.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("LOG_FORMAT: unknown format %q", format)
	}

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	logg.SetLevel(lvl)

	return logg, nil
}

// LogError logs err with the module, function and context that produced it.
func LogError(logger logrus.FieldLogger, moduleName, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
