// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package usbproxyd

import (
	"fmt"
	"log"
	"os"

	"github.com/neo4reo/USBProxy/support/logging"
)

// level orders the four logging.L severities so stderrLogger can filter by
// the configured LogLevel.
type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

func parseLevel(s string) level {
	switch s {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// stderrLogger is a minimal logging.L backed by the standard log package,
// filtering by a configured floor. usbproxyd has no concrete structured
// logger dependency to reach for (the teacher's own support/logging.L is
// deliberately logger-agnostic, documented to accept a zap.SugaredLogger
// without importing zap), so this is the same posture carried one step
// further: a floor-filtered *log.Logger adapter.
type stderrLogger struct {
	floor level
	l     *log.Logger
}

var _ logging.L = (*stderrLogger)(nil)

func newStderrLogger(floor string) *stderrLogger {
	return &stderrLogger{
		floor: parseLevel(floor),
		l:     log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
	}
}

func (s *stderrLogger) emit(lv level, tag string, msg string) {
	if lv < s.floor {
		return
	}
	s.l.Printf("[%s] %s", tag, msg)
}

func (s *stderrLogger) Error(args ...interface{}) { s.emit(levelError, "ERROR", fmt.Sprint(args...)) }
func (s *stderrLogger) Warn(args ...interface{})  { s.emit(levelWarn, "WARN", fmt.Sprint(args...)) }
func (s *stderrLogger) Info(args ...interface{})  { s.emit(levelInfo, "INFO", fmt.Sprint(args...)) }
func (s *stderrLogger) Debug(args ...interface{}) { s.emit(levelDebug, "DEBUG", fmt.Sprint(args...)) }

func (s *stderrLogger) Errorf(f string, args ...interface{}) {
	s.emit(levelError, "ERROR", fmt.Sprintf(f, args...))
}
func (s *stderrLogger) Warnf(f string, args ...interface{}) {
	s.emit(levelWarn, "WARN", fmt.Sprintf(f, args...))
}
func (s *stderrLogger) Infof(f string, args ...interface{}) {
	s.emit(levelInfo, "INFO", fmt.Sprintf(f, args...))
}
func (s *stderrLogger) Debugf(f string, args ...interface{}) {
	s.emit(levelDebug, "DEBUG", fmt.Sprintf(f, args...))
}
