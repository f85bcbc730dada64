// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_sensors/internal/env"
	"github.com/relabs-tech/flight_sensors/internal/imu"
)

// TypeFSCMP is the proprietary sentence carrying one composite:
//
//	$PFSCMP,seq,ax,ay,az,mx,my,mz,gx,gy,gz,temp,press,alt*hh
//
// The three barometer fields are empty when the barometer is off.
const TypeFSCMP = "FSCMP"

const fscmpFields = 13

// FSCMP is a decoded $PFSCMP sentence.
type FSCMP struct {
	nmea.BaseSentence
	Composite imu.Composite
}

var sentenceParser = nmea.SentenceParser{
	CustomParsers: map[string]nmea.ParserFunc{
		TypeFSCMP: parseFSCMP,
	},
}

func parseFSCMP(s nmea.BaseSentence) (nmea.Sentence, error) {
	if len(s.Fields) != fscmpFields {
		return nil, fmt.Errorf("nmea: %s has %d fields, want %d", TypeFSCMP, len(s.Fields), fscmpFields)
	}
	p := nmea.NewParser(s)
	c := imu.Composite{
		Seq:   uint64(p.Int64(0, "seq")),
		Accel: imu.Acceleration{X: p.Float64(1, "ax"), Y: p.Float64(2, "ay"), Z: p.Float64(3, "az")},
		Mag:   imu.MagneticField{X: p.Float64(4, "mx"), Y: p.Float64(5, "my"), Z: p.Float64(6, "mz")},
		Gyro:  imu.AngularRate{X: p.Float64(7, "gx"), Y: p.Float64(8, "gy"), Z: p.Float64(9, "gz")},
	}
	if s.Fields[10] != "" {
		c.Baro = &env.Barometer{
			Temperature: p.Float64(10, "temperature"),
			Pressure:    p.Float64(11, "pressure"),
			Altitude:    p.Float64(12, "altitude"),
		}
	}
	return FSCMP{BaseSentence: s, Composite: c}, p.Err()
}

// FormatSentence encodes c as a checksummed $PFSCMP line without line
// terminator.
func FormatSentence(c imu.Composite) string {
	f := func(v float64, prec int) string { return strconv.FormatFloat(v, 'f', prec, 64) }
	fields := []string{
		"P" + TypeFSCMP,
		strconv.FormatUint(c.Seq, 10),
		f(c.Accel.X, 3), f(c.Accel.Y, 3), f(c.Accel.Z, 3),
		f(c.Mag.X, 4), f(c.Mag.Y, 4), f(c.Mag.Z, 4),
		f(c.Gyro.X, 3), f(c.Gyro.Y, 3), f(c.Gyro.Z, 3),
		"", "", "",
	}
	if c.Baro != nil {
		fields[11], fields[12], fields[13] = f(c.Baro.Temperature, 1), f(c.Baro.Pressure, 2), f(c.Baro.Altitude, 1)
	}
	body := strings.Join(fields, ",")
	return "$" + body + "*" + nmea.Checksum(body)
}

// ParseSentence decodes one $PFSCMP line.
func ParseSentence(line string) (imu.Composite, error) {
	s, err := sentenceParser.Parse(strings.TrimSpace(line))
	if err != nil {
		return imu.Composite{}, err
	}
	m, ok := s.(FSCMP)
	if !ok {
		return imu.Composite{}, fmt.Errorf("nmea: unexpected sentence %s", s.DataType())
	}
	return m.Composite, nil
}

// SerialSink writes one $PFSCMP line per composite.
type SerialSink struct {
	w io.Writer
}

// NewSerialSink writes to w, typically a port from OpenSerial.
func NewSerialSink(w io.Writer) *SerialSink {
	return &SerialSink{w: w}
}

func (s *SerialSink) Publish(c imu.Composite) error {
	if _, err := io.WriteString(s.w, FormatSentence(c)+"\r\n"); err != nil {
		return fmt.Errorf("serial: write: %w", err)
	}
	return nil
}

// OpenSerial opens a UART at baud, 8N1.
func OpenSerial(port string, baud uint) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	rwc, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", port, err)
	}
	log.WithFields(log.Fields{"port": port, "baud": baud}).Info("serial port opened")
	return rwc, nil
}

// ReadSentences decodes $PFSCMP lines from r until ctx is done or r fails.
// Lines that are not valid sentences are skipped.
func ReadSentences(ctx context.Context, r io.Reader, fn func(imu.Composite)) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "$P"+TypeFSCMP) {
			continue
		}
		c, err := ParseSentence(line)
		if err != nil {
			log.WithError(err).Debug("serial: skipping line")
			continue
		}
		fn(c)
	}
	return sc.Err()
}
