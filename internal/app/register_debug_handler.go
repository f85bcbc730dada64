// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_sensors/internal/bus"
	"github.com/relabs-tech/flight_sensors/internal/sensors"
)

// ErrReadOnly is returned for writes to registers not marked writable.
var ErrReadOnly = errors.New("register is not writable")

// RegisterCmd is a request on the register debug websocket.
type RegisterCmd struct {
	Action  string `json:"action"` // "get_map", "read", "read_all", "write"
	Device  string `json:"device"` // "bmp180", "lsm303d" or "l3gd20"
	Address string `json:"addr,omitempty"`
	Value   string `json:"value,omitempty"`
}

// Response types
type RegisterResponse struct {
	Type        string            `json:"type"` // "register_data", "register_map", "error"
	Device      string            `json:"device,omitempty"`
	Address     string            `json:"addr,omitempty"`
	Value       string            `json:"value,omitempty"`
	Registers   map[string]string `json:"registers,omitempty"` // for bulk read
	Timestamp   string            `json:"timestamp,omitempty"`
	Message     string            `json:"message,omitempty"`
	RegisterMap []RegisterInfo    `json:"register_map,omitempty"`
}

type RegisterInfo struct {
	Address     string             `json:"address"`
	Name        string             `json:"name"`
	Width       int                `json:"width"`
	Description string             `json:"description"`
	Access      string             `json:"access"` // "R", "W", "RW"
	Default     string             `json:"default,omitempty"`
	BitFields   []sensors.BitField `json:"bit_fields,omitempty"`
}

type debugDevice struct {
	addr uint16
	regs sensors.RegisterMap
}

// RegisterDebugger gives raw register access to the GY-89 devices that
// share the acquisition bus.
type RegisterDebugger struct {
	t       bus.Transport
	devices map[string]debugDevice
}

// NewRegisterDebugger exposes every device on board.
func NewRegisterDebugger(t bus.Transport, board *sensors.Board) *RegisterDebugger {
	d := &RegisterDebugger{t: t, devices: map[string]debugDevice{
		sensors.DeviceLSM303D: {board.Accel.Address(), board.Accel.Registers()},
		sensors.DeviceL3GD20:  {board.Gyro.Address(), board.Gyro.Registers()},
	}}
	if board.Baro != nil {
		d.devices[sensors.DeviceBMP180] = debugDevice{board.Baro.Address(), board.Baro.Registers()}
	}
	return d
}

// Devices lists the device names in alphabetical order.
func (d *RegisterDebugger) Devices() []string {
	names := make([]string, 0, len(d.devices))
	for n := range d.devices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (d *RegisterDebugger) device(name string) (debugDevice, error) {
	dev, ok := d.devices[name]
	if !ok {
		return debugDevice{}, fmt.Errorf("unknown device %q", name)
	}
	return dev, nil
}

// RegisterMap describes the registers of a device ordered by address.
func (d *RegisterDebugger) RegisterMap(device string) ([]RegisterInfo, error) {
	dev, err := d.device(device)
	if err != nil {
		return nil, err
	}
	regs := dev.regs.Sorted()
	out := make([]RegisterInfo, len(regs))
	for i, r := range regs {
		out[i] = RegisterInfo{
			Address:     fmt.Sprintf("0x%02X", r.Addr),
			Name:        r.Name,
			Width:       r.Width,
			Description: r.Description,
			Access:      r.Access,
			Default:     r.Default,
			BitFields:   r.BitFields,
		}
	}
	return out, nil
}

// Read returns one register byte.
func (d *RegisterDebugger) Read(device string, reg byte) (byte, error) {
	dev, err := d.device(device)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, 1)
	if err := bus.ReadRegister(d.t, dev.addr, reg, buf); err != nil {
		return 0, fmt.Errorf("%s: read 0x%02X: %w", device, reg, err)
	}
	return buf[0], nil
}

// ReadAll reads every readable byte the register table covers. Multi-byte
// registers are read one address at a time.
func (d *RegisterDebugger) ReadAll(device string) (map[byte]byte, error) {
	dev, err := d.device(device)
	if err != nil {
		return nil, err
	}
	out := make(map[byte]byte)
	for _, r := range dev.regs.Sorted() {
		if !strings.Contains(r.Access, "R") {
			continue
		}
		for i := 0; i < r.Width; i++ {
			v, err := d.Read(device, r.Addr+byte(i))
			if err != nil {
				return nil, err
			}
			out[r.Addr+byte(i)] = v
		}
	}
	return out, nil
}

// Write sets a register the table marks writable.
func (d *RegisterDebugger) Write(device string, reg, value byte) error {
	dev, err := d.device(device)
	if err != nil {
		return err
	}
	r, ok := dev.regs.Lookup(reg)
	if !ok || !strings.Contains(r.Access, "W") {
		return fmt.Errorf("%s: 0x%02X: %w", device, reg, ErrReadOnly)
	}
	if err := bus.WriteRegister(d.t, dev.addr, reg, value); err != nil {
		return fmt.Errorf("%s: write %s: %w", device, r.Name, err)
	}
	log.WithFields(log.Fields{"device": device, "register": r.Name, "value": fmt.Sprintf("0x%02X", value)}).
		Warn("register_debug: register written")
	return nil
}

// HandleMap serves the register table of ?device= as JSON.
func (d *RegisterDebugger) HandleMap(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")
	if device == "" {
		device = sensors.DeviceLSM303D
	}
	regs, err := d.RegisterMap(device)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(regs); err != nil {
		log.WithError(err).Debug("register_debug: encode map")
	}
}

// HandleWS handles the WebSocket connection for register debugging
func (d *RegisterDebugger) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("register_debug: websocket upgrade")
		return
	}
	defer conn.Close()

	// Send the LSM303D map on connection
	if err := conn.WriteJSON(d.mapResponse(sensors.DeviceLSM303D)); err != nil {
		log.WithError(err).Warn("register_debug: sending register map")
		return
	}

	for {
		var cmd RegisterCmd
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("register_debug: websocket read")
			}
			return
		}
		if err := conn.WriteJSON(d.Handle(cmd)); err != nil {
			log.WithError(err).Debug("register_debug: websocket write")
			return
		}
	}
}

// Handle executes one command and builds its response.
func (d *RegisterDebugger) Handle(cmd RegisterCmd) RegisterResponse {
	if cmd.Device == "" {
		cmd.Device = sensors.DeviceLSM303D
	}
	switch cmd.Action {
	case "get_map":
		return d.mapResponse(cmd.Device)
	case "read":
		addr, err := parseHexByte(cmd.Address)
		if err != nil {
			return errorResponse(fmt.Sprintf("invalid address format: %q", cmd.Address))
		}
		v, err := d.Read(cmd.Device, addr)
		if err != nil {
			return errorResponse(fmt.Sprintf("read error: %v", err))
		}
		return RegisterResponse{
			Type:      "register_data",
			Device:    cmd.Device,
			Address:   fmt.Sprintf("0x%02X", addr),
			Value:     fmt.Sprintf("0x%02X", v),
			Timestamp: time.Now().Format(time.RFC3339),
		}
	case "read_all":
		regs, err := d.ReadAll(cmd.Device)
		if err != nil {
			return errorResponse(fmt.Sprintf("read all error: %v", err))
		}
		regMap := make(map[string]string, len(regs))
		for addr, v := range regs {
			regMap[fmt.Sprintf("0x%02X", addr)] = fmt.Sprintf("0x%02X", v)
		}
		return RegisterResponse{
			Type:      "register_data",
			Device:    cmd.Device,
			Registers: regMap,
			Timestamp: time.Now().Format(time.RFC3339),
		}
	case "write":
		addr, err := parseHexByte(cmd.Address)
		if err != nil {
			return errorResponse(fmt.Sprintf("invalid address format: %q", cmd.Address))
		}
		value, err := parseHexByte(cmd.Value)
		if err != nil {
			return errorResponse(fmt.Sprintf("invalid value format: %q", cmd.Value))
		}
		if err := d.Write(cmd.Device, addr, value); err != nil {
			return errorResponse(fmt.Sprintf("write error: %v", err))
		}
		return RegisterResponse{
			Type:      "register_data",
			Device:    cmd.Device,
			Address:   fmt.Sprintf("0x%02X", addr),
			Value:     fmt.Sprintf("0x%02X", value),
			Timestamp: time.Now().Format(time.RFC3339),
			Message:   "write successful",
		}
	default:
		return errorResponse(fmt.Sprintf("unknown action: %s", cmd.Action))
	}
}

func (d *RegisterDebugger) mapResponse(device string) RegisterResponse {
	regs, err := d.RegisterMap(device)
	if err != nil {
		return errorResponse(err.Error())
	}
	return RegisterResponse{Type: "register_map", Device: device, RegisterMap: regs}
}

func errorResponse(message string) RegisterResponse {
	return RegisterResponse{Type: "error", Message: message}
}

// parseHexByte parses a 0x-prefixed hex byte such as "0x1F".
func parseHexByte(s string) (byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, fmt.Errorf("want 0x prefix: %q", s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}
