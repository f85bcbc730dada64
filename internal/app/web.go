// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_sensors/internal/telemetry"
)

const shutdownTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// NewMux wires the HTTP surface of the acquisition process:
//
//	/api/composite    latest composite as JSON
//	/ws/composite     every composite as it is published
//	/metrics          Prometheus metrics from gatherer
//	/api/history      newest ?n= composites from the datalog
//	/api/registers    register table of ?device=
//	/ws/registers     register debug session
//
// history and dbg may be nil to leave their endpoints out.
func NewMux(hub *telemetry.Hub, gatherer prometheus.Gatherer, history *telemetry.Datalog, dbg *RegisterDebugger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/composite", hub.ServeLatest)
	mux.HandleFunc("/ws/composite", hub.ServeWS)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if history != nil {
		mux.HandleFunc("/api/history", history.ServeRecent)
	}
	if dbg != nil {
		mux.HandleFunc("/api/registers", dbg.HandleMap)
		mux.HandleFunc("/ws/registers", dbg.HandleWS)
	}
	return mux
}

// serveHTTP listens on port until ctx is done.
func serveHTTP(ctx context.Context, port int, h http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.WithError(err).Warn("web server shutdown")
		}
	}()

	log.WithField("addr", srv.Addr).Info("web server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
