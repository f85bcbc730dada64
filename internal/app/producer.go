// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_sensors/internal/aggregate"
	"github.com/relabs-tech/flight_sensors/internal/config"
	"github.com/relabs-tech/flight_sensors/internal/sensors"
	"github.com/relabs-tech/flight_sensors/internal/telemetry"
)

// mqttDisconnectQuiesce is how long Disconnect waits for in-flight work, ms.
const mqttDisconnectQuiesce = 250

// RunAcquisition polls the GY-89 and fans every composite out to the sinks
// enabled in cfg until ctx is cancelled.
func RunAcquisition(ctx context.Context, cfg *config.Config, simulate bool) error {
	log.SetLevel(cfg.Level())
	log.Info("starting flight sensors acquisition")

	hw, err := openHardware(cfg, simulate)
	if err != nil {
		return err
	}
	defer hw.Close()

	board, err := hw.board(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go hw.animate(ctx)

	sinks, closers, err := openSinks(cfg, hw)
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.WithError(err).Warn("closing sink")
			}
		}
	}()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.WebServerPort > 0 {
		hub := telemetry.NewHub()
		sinks = append(sinks, hub)
		mux := NewMux(hub, reg, sinks.Datalog(), NewRegisterDebugger(hw.transport, board))
		go func() {
			if err := serveHTTP(ctx, cfg.WebServerPort, mux); err != nil {
				log.WithError(err).Error("web server stopped")
			}
		}()
	}

	agg, err := aggregate.New(cfg.Aggregation(), board, sinks, aggregate.WithRegisterer(reg))
	if err != nil {
		return err
	}
	return agg.Run(ctx)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openSinks opens every sink cfg enables. The closers are returned even on
// error so the caller can release what was opened.
func openSinks(cfg *config.Config, hw *hardware) (telemetry.Multi, []io.Closer, error) {
	sinks := telemetry.Multi{telemetry.NewLogSink(nil)}
	var closers []io.Closer

	if cfg.MQTTBroker != "" {
		client, err := telemetry.DialMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, closerFunc(func() error {
			client.Disconnect(mqttDisconnectQuiesce)
			return nil
		}))
		sinks = append(sinks, telemetry.NewMQTTSink(client, cfg.TopicComposite))
	}

	if cfg.SerialPort != "" {
		port, err := telemetry.OpenSerial(cfg.SerialPort, uint(cfg.SerialBaudRate))
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, port)
		sinks = append(sinks, telemetry.NewSerialSink(port))
	}

	if cfg.DatalogPath != "" {
		dl, err := telemetry.OpenDatalog(cfg.DatalogPath)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, dl)
		sinks = append(sinks, dl)
	}

	if cfg.DisplayEnabled {
		if hw.i2c == nil {
			log.Warn("display enabled but no I2C bus in simulation, skipping")
		} else {
			disp, err := telemetry.OpenDisplay(hw.i2c)
			if err != nil {
				return nil, closers, err
			}
			sinks = append(sinks, disp)
		}
	}

	return sinks, closers, nil
}

// Probe checks the identity of every GY-89 device and writes one line per
// device. It returns the first identity error. With raw set and every
// identity good, it also initializes the board and prints one sample in
// sensor counts.
func Probe(cfg *config.Config, simulate, raw bool, out io.Writer) error {
	hw, err := openHardware(cfg, simulate)
	if err != nil {
		return err
	}
	defer hw.Close()

	board, err := hw.board(cfg)
	if err != nil {
		return err
	}
	if err := printProbe(out, board); err != nil || !raw {
		return err
	}
	if err := board.Init(); err != nil {
		return err
	}
	return printRaw(out, board)
}

func printRaw(out io.Writer, board *sensors.Board) error {
	r, err := board.ReadRaw()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "raw      accel %d %d %d  mag %d %d %d  gyro %d %d %d\n",
		r.Ax, r.Ay, r.Az, r.Mx, r.My, r.Mz, r.Gx, r.Gy, r.Gz)
	return err
}

func printProbe(out io.Writer, board *sensors.Board) error {
	res := board.Probe()
	addrs := map[string]uint16{
		sensors.DeviceLSM303D: board.Accel.Address(),
		sensors.DeviceL3GD20:  board.Gyro.Address(),
	}
	if board.Baro != nil {
		addrs[sensors.DeviceBMP180] = board.Baro.Address()
	}

	var first error
	for _, name := range []string{sensors.DeviceLSM303D, sensors.DeviceL3GD20, sensors.DeviceBMP180} {
		err, ok := res[name]
		if !ok {
			continue
		}
		status := "ok"
		if err != nil {
			status = err.Error()
			if first == nil {
				first = err
			}
		}
		if _, werr := fmt.Fprintf(out, "%-8s 0x%02X  %s\n", name, addrs[name], status); werr != nil {
			return werr
		}
	}
	return first
}
