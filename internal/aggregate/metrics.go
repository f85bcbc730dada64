// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package aggregate

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	windowsEmitted prometheus.Counter
	windowsAborted prometheus.Counter
	initFailures   *prometheus.CounterVec
	sinkErrors     prometheus.Counter
	windowDuration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		windowsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flight_sensors_windows_emitted_total",
			Help: "Composite samples every sink accepted.",
		}),
		windowsAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flight_sensors_windows_aborted_total",
			Help: "Windows discarded after a read failure.",
		}),
		initFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flight_sensors_init_failures_total",
				Help: "Failed device initialization attempts.",
			},
			[]string{"device"},
		),
		sinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flight_sensors_sink_errors_total",
			Help: "Composite samples a sink failed to accept.",
		}),
		windowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flight_sensors_window_duration_seconds",
			Help:    "Wall time from the first poll of a window to its publication.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.windowsEmitted, m.windowsAborted, m.initFailures, m.sinkErrors, m.windowDuration)
	}
	return m
}
