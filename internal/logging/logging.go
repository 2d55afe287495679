// Package logging builds the goakt logger shared by the CLI and the actor system.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/tochemey/goakt/v3/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation settings of the optional log file.
const (
	maxSizeMB  = 50
	maxBackups = 5
	maxAgeDays = 30
)

// ParseLevel maps a level name to a goakt log level.
func ParseLevel(name string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return log.DebugLevel, nil
	case "", "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarningLevel, nil
	case "error":
		return log.ErrorLevel, nil
	}
	return log.InvalidLevel, fmt.Errorf("unknown log level %q", name)
}

// New returns a logger writing to console and, when file is not empty, to a
// rotating log file. The returned closer releases the file and must be
// called once logging is done.
func New(level, file string, console io.Writer) (log.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}
	if file != "" {
		rotating := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		writers = append(writers, rotating)
		closer = rotating
	}
	return log.New(lvl, writers...), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
