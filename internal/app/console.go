// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_sensors/internal/config"
	"github.com/relabs-tech/flight_sensors/internal/imu"
	"github.com/relabs-tech/flight_sensors/internal/telemetry"
)

// RunConsole prints every composite until ctx is cancelled. With serialPort
// set it decodes $PFSCMP lines from that UART, otherwise it subscribes to the
// composite topic on the MQTT broker.
func RunConsole(ctx context.Context, cfg *config.Config, serialPort string, out io.Writer) error {
	log.SetLevel(cfg.Level())
	if serialPort != "" {
		port, err := telemetry.OpenSerial(serialPort, uint(cfg.SerialBaudRate))
		if err != nil {
			return err
		}
		// Closing the port unblocks the scanner on shutdown.
		go func() {
			<-ctx.Done()
			port.Close()
		}()
		err = consoleSerial(ctx, port, out)
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	if cfg.MQTTBroker == "" {
		return fmt.Errorf("console: MQTT_BROKER is not set and no serial port given")
	}
	client, err := telemetry.DialMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(mqttDisconnectQuiesce)

	p := newConsolePrinter(out)
	if err := telemetry.SubscribeComposites(client, cfg.TopicComposite, p.print); err != nil {
		return err
	}
	<-ctx.Done()
	log.Info("console: shutting down")
	return nil
}

func consoleSerial(ctx context.Context, r io.Reader, out io.Writer) error {
	return telemetry.ReadSentences(ctx, r, newConsolePrinter(out).print)
}

// consolePrinter serializes output from the MQTT callback goroutines.
type consolePrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func newConsolePrinter(out io.Writer) *consolePrinter {
	return &consolePrinter{out: out}
}

func (p *consolePrinter) print(c imu.Composite) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[#%d]\n%s\n", c.Seq, telemetry.FormatConsole(c))
}
