// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_sensors/internal/imu"
)

const (
	wsWriteWait = 2 * time.Second
	wsSendQueue = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub streams composites to websocket clients and keeps the latest one for
// the REST endpoint. Slow clients drop frames instead of blocking Publish.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	latest  []byte
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

func (h *Hub) Publish(c imu.Composite) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("hub: marshal composite: %w", err)
	}
	h.mu.Lock()
	h.latest = payload
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		select {
		case cl.send <- payload:
		default:
			log.WithField("remote", cl.conn.RemoteAddr()).Debug("hub: client queue full, dropping frame")
		}
	}
	return nil
}

// Clients is the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeLatest answers with the most recent composite as JSON.
func (h *Hub) ServeLatest(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	payload := h.latest
	h.mu.RUnlock()

	if payload == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(payload); err != nil {
		log.WithError(err).Debug("hub: write response")
	}
}

// ServeWS upgrades the request and streams composites until the client
// goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("hub: websocket upgrade")
		return
	}
	cl := &wsClient{conn: conn, send: make(chan []byte, wsSendQueue)}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	if h.latest != nil {
		cl.send <- h.latest
	}
	h.mu.Unlock()
	log.WithField("remote", conn.RemoteAddr()).Info("hub: client connected")

	go h.writeLoop(cl)

	// Drain client frames so close and ping frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("hub: websocket read")
			}
			break
		}
	}
	h.remove(cl)
}

func (h *Hub) writeLoop(cl *wsClient) {
	defer cl.conn.Close()
	for payload := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(cl)
			return
		}
	}
}

func (h *Hub) remove(cl *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
	log.WithField("remote", cl.conn.RemoteAddr()).Info("hub: client disconnected")
}
