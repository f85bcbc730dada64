// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/flight_sensors/internal/imu"
)

// Drawer is the part of *ssd1306.Dev the display sink uses.
type Drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Display renders each composite on a 128x64 monochrome OLED.
type Display struct {
	dev Drawer
}

// OpenDisplay initializes an SSD1306 at its default address 0x3C on b and
// shows the splash screen.
func OpenDisplay(b i2c.Bus) (*Display, error) {
	dev, err := ssd1306.NewI2C(b, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("display: init ssd1306: %w", err)
	}
	d := NewDisplay(dev)
	if err := d.Splash(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewDisplay draws on dev.
func NewDisplay(dev Drawer) *Display {
	return &Display{dev: dev}
}

// Splash shows the start-up screen.
func (d *Display) Splash() error {
	return d.draw([]textLine{
		{10, 26, "Flight Sensors"},
		{40, 43, "GY-89"},
		{20, 56, "Waiting..."},
	})
}

func (d *Display) Publish(c imu.Composite) error {
	lines := []textLine{
		{0, 13, fmt.Sprintf("A %5.1f%5.1f%5.1f", c.Accel.X, c.Accel.Y, c.Accel.Z)},
		{0, 26, fmt.Sprintf("M %5.2f%5.2f%5.2f", c.Mag.X, c.Mag.Y, c.Mag.Z)},
		{0, 39, fmt.Sprintf("G %5.0f%5.0f%5.0f", c.Gyro.X, c.Gyro.Y, c.Gyro.Z)},
	}
	if c.Baro != nil {
		lines = append(lines, textLine{0, 52, fmt.Sprintf("P%7.1f T%5.1f", c.Baro.Pressure, c.Baro.Temperature)})
	} else {
		lines = append(lines, textLine{0, 52, fmt.Sprintf("#%d", c.Seq)})
	}
	return d.draw(lines)
}

type textLine struct {
	x, y int
	text string
}

func (d *Display) draw(lines []textLine) error {
	img := image1bit.NewVerticalLSB(d.dev.Bounds())

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for _, l := range lines {
		drawer.Dot = fixed.P(l.x, l.y)
		drawer.DrawString(l.text)
	}
	if err := d.dev.Draw(d.dev.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("display: draw: %w", err)
	}
	return nil
}
