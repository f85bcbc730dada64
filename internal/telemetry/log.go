// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_sensors/internal/imu"
)

// LogSink prints every composite in console format.
type LogSink struct {
	entry *log.Entry
}

// NewLogSink logs through l, or the standard logger when l is nil.
func NewLogSink(l *log.Logger) *LogSink {
	if l == nil {
		l = log.StandardLogger()
	}
	return &LogSink{entry: l.WithField("component", "console")}
}

func (s *LogSink) Publish(c imu.Composite) error {
	e := s.entry.WithField("seq", c.Seq)
	for _, line := range strings.Split(FormatConsole(c), "\n") {
		e.Info(line)
	}
	return nil
}
