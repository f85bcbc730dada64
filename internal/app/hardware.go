// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/flight_sensors/internal/bus"
	"github.com/relabs-tech/flight_sensors/internal/config"
	"github.com/relabs-tech/flight_sensors/internal/sensors"
)

// simulatorTick is how often the simulated board moves.
const simulatorTick = 20 * time.Millisecond

// hardware is the sensor bus the process runs on: a real periph I2C bus or
// the simulated GY-89.
type hardware struct {
	transport bus.Transport
	// i2c is the raw periph bus for devices driven by periph itself (the
	// OLED). Nil when simulated.
	i2c    i2c.Bus
	sim    *bus.GY89
	closer i2c.BusCloser
}

func openHardware(cfg *config.Config, simulate bool) (*hardware, error) {
	if simulate {
		log.Info("using simulated GY-89 board")
		sim := bus.NewGY89Sim()
		return &hardware{transport: sim, sim: sim}, nil
	}
	t, bc, err := bus.OpenI2C(cfg.I2CBus)
	if err != nil {
		return nil, err
	}
	log.WithField("bus", bc.String()).Info("opened I2C bus")
	return &hardware{transport: t, i2c: t.Bus(), closer: bc}, nil
}

// board builds the GY-89 drivers on the bus. The simulated board answers
// at the default addresses only.
func (h *hardware) board(cfg *config.Config) (*sensors.Board, error) {
	opts := cfg.Board()
	if h.sim != nil {
		opts.LSM303D.Addr = bus.AddrLSM303D
		opts.L3GD20.Addr = bus.AddrL3GD20
		if opts.BMP180 != nil {
			opts.BMP180.Addr = bus.AddrBMP180
		}
	}
	return sensors.NewBoard(h.transport, opts)
}

// animate drives the simulated board until ctx is done. It is a no-op on
// real hardware.
func (h *hardware) animate(ctx context.Context) {
	if h.sim == nil {
		return
	}
	start := time.Now()
	ticker := time.NewTicker(simulatorTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sim.Animate(time.Since(start))
			// Nobody inspects the transaction log of a long run.
			h.sim.ResetOps()
		}
	}
}

func (h *hardware) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer.Close()
}
