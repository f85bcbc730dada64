// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/relabs-tech/flight_sensors/internal/aggregate"
	"github.com/relabs-tech/flight_sensors/internal/sensors"
)

// EnvPrefix is prepended to every key when overriding it from the
// environment, e.g. FLIGHT_OUTPUT_PERIOD_MS=200.
const EnvPrefix = "FLIGHT"

// DefaultPath is where the commands look for the config file when --config
// is not given.
const DefaultPath = "flight_sensors.conf"

// Config holds all application configuration values.
type Config struct {
	// Bus
	I2CBus string

	// BMP180
	BMP180Addr               uint16
	BMP180OSS                byte
	BMP180ConversionDelayUS  int
	BMP180CalibrationRetries int
	BarometerEnabled         bool
	SeaLevelPressureHPa      float64

	// LSM303D / L3GD20
	LSM303DAddr uint16
	L3GD20Addr  uint16

	// Aggregation
	OutputPeriodMS   int
	SamplesPerWindow int
	InitBackoffMS    int
	InitRetries      int

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	TopicComposite       string

	// Serial telemetry
	SerialPort     string
	SerialBaudRate int

	// SQLite datalog
	DatalogPath string

	// Display
	DisplayEnabled bool

	// Web Server
	WebServerPort int

	LogLevel string
}

type key struct {
	name string
	def  string
	help string
}

// keys lists every accepted key in file order. Anything else is rejected.
var keys = []key{
	{"I2C_BUS", "", "periph I2C bus name, empty selects the first bus"},
	{"BMP180_ADDR", "0x77", ""},
	{"LSM303D_ADDR", "0x1E", ""},
	{"L3GD20_ADDR", "0x6A", ""},
	{"BMP180_OSS", "0", "pressure oversampling 0-3"},
	{"BMP180_CONVERSION_DELAY_US", "4500", "settling delay after a conversion command"},
	{"BMP180_CALIBRATION_RETRIES", "3", ""},
	{"BAROMETER_ENABLED", "true", "include the BMP180 in every composite"},
	{"SEA_LEVEL_PRESSURE_HPA", "1013.25", "altitude reference"},
	{"OUTPUT_PERIOD_MS", "150", "composite period"},
	{"SAMPLES_PER_WINDOW", "5", ""},
	{"INIT_BACKOFF_MS", "1000", ""},
	{"INIT_RETRIES", "10", ""},
	{"MQTT_BROKER", "", "e.g. tcp://localhost:1883, empty disables MQTT"},
	{"MQTT_CLIENT_ID_PRODUCER", "flight-sensors-producer", ""},
	{"MQTT_CLIENT_ID_CONSOLE", "flight-sensors-console", ""},
	{"TOPIC_COMPOSITE", "flight/sensors/composite", ""},
	{"SERIAL_PORT", "", "UART for $PFSCMP telemetry, empty disables it"},
	{"SERIAL_BAUD_RATE", "115200", ""},
	{"DATALOG_PATH", "", "SQLite file, empty disables the datalog"},
	{"DISPLAY_ENABLED", "false", "SSD1306 on the sensor bus"},
	{"WEB_SERVER_PORT", "0", "websocket, REST, metrics and register debug; 0 disables"},
	{"LOG_LEVEL", "info", "debug, info, warn or error"},
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only InitGlobal sets it, Get reads it.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("env")
	for _, k := range keys {
		v.SetDefault(k.name, k.def)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads the KEY=VALUE file at configPath and returns a Config struct.
// An empty path loads the defaults. FLIGHT_<KEY> environment variables
// override both.
func Load(configPath string) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.WithField("path", v.ConfigFileUsed()).Debug("using config file")
	}
	return fromViper(v)
}

// Parse loads a config from r, used by tests and for embedded defaults.
func Parse(r io.Reader) (*Config, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[strings.ToLower(k.name)] = true
	}
	for _, k := range v.AllKeys() {
		if !known[k] {
			return nil, fmt.Errorf("unknown config key: %q", strings.ToUpper(k))
		}
	}

	cfg := &Config{}
	for _, k := range keys {
		value := strings.TrimSpace(v.GetString(k.name))
		if err := cfg.setValue(k.name, value); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	case "I2C_BUS":
		c.I2CBus = value
	case "BMP180_ADDR":
		c.BMP180Addr, err = parseAddr(key, value)
	case "LSM303D_ADDR":
		c.LSM303DAddr, err = parseAddr(key, value)
	case "L3GD20_ADDR":
		c.L3GD20Addr, err = parseAddr(key, value)
	case "BMP180_OSS":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BMP180_OSS %q: %w", value, err)
		}
		if val < 0 || val > 3 {
			return fmt.Errorf("BMP180_OSS must be 0-3 (0=single, 1=2x, 2=4x, 3=8x), got %d", val)
		}
		c.BMP180OSS = byte(val)
	case "BMP180_CONVERSION_DELAY_US":
		c.BMP180ConversionDelayUS, err = parseInt(key, value)
	case "BMP180_CALIBRATION_RETRIES":
		c.BMP180CalibrationRetries, err = parseInt(key, value)
	case "BAROMETER_ENABLED":
		c.BarometerEnabled, err = parseBool(key, value)
	case "SEA_LEVEL_PRESSURE_HPA":
		c.SeaLevelPressureHPa, err = strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SEA_LEVEL_PRESSURE_HPA %q: %w", value, err)
		}

	case "OUTPUT_PERIOD_MS":
		c.OutputPeriodMS, err = parseInt(key, value)
	case "SAMPLES_PER_WINDOW":
		c.SamplesPerWindow, err = parseInt(key, value)
	case "INIT_BACKOFF_MS":
		c.InitBackoffMS, err = parseInt(key, value)
	case "INIT_RETRIES":
		c.InitRetries, err = parseInt(key, value)

	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "TOPIC_COMPOSITE":
		c.TopicComposite = value

	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parseInt(key, value)

	case "DATALOG_PATH":
		c.DatalogPath = value
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = parseBool(key, value)

	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}
	return err
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

// parseAddr accepts decimal, 0x hex or 0o octal 7-bit addresses.
func parseAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if addr > 0x7F {
		return 0, fmt.Errorf("%s must be a 7-bit address, got 0x%X", key, addr)
	}
	return uint16(addr), nil
}

// validate checks ranges that depend on more than one key.
func (c *Config) validate() error {
	if c.BMP180ConversionDelayUS <= 0 {
		return fmt.Errorf("BMP180_CONVERSION_DELAY_US must be positive")
	}
	if c.BMP180CalibrationRetries < 1 {
		return fmt.Errorf("BMP180_CALIBRATION_RETRIES must be at least 1")
	}
	if c.SeaLevelPressureHPa <= 0 {
		return fmt.Errorf("SEA_LEVEL_PRESSURE_HPA must be positive")
	}
	if c.OutputPeriodMS <= 0 {
		return fmt.Errorf("OUTPUT_PERIOD_MS must be positive")
	}
	if c.SamplesPerWindow <= 0 {
		return fmt.Errorf("SAMPLES_PER_WINDOW must be positive")
	}
	if c.OutputPeriodMS < c.SamplesPerWindow {
		return fmt.Errorf("OUTPUT_PERIOD_MS (%d) must allow at least 1 ms per sample (%d samples)", c.OutputPeriodMS, c.SamplesPerWindow)
	}
	if c.InitBackoffMS < 0 {
		return fmt.Errorf("INIT_BACKOFF_MS must not be negative")
	}
	if c.InitRetries < 1 {
		return fmt.Errorf("INIT_RETRIES must be at least 1")
	}
	if c.MQTTBroker != "" && c.TopicComposite == "" {
		return fmt.Errorf("TOPIC_COMPOSITE is required when MQTT_BROKER is set")
	}
	if c.SerialPort != "" && c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE is required when SERIAL_PORT is set")
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", c.WebServerPort)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level is the configured logrus level.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Aggregation returns the acquisition loop settings.
func (c *Config) Aggregation() aggregate.Config {
	return aggregate.Config{
		OutputPeriod:     time.Duration(c.OutputPeriodMS) * time.Millisecond,
		SamplesPerWindow: c.SamplesPerWindow,
		InitBackoff:      time.Duration(c.InitBackoffMS) * time.Millisecond,
		InitRetries:      c.InitRetries,
		Barometer:        c.BarometerEnabled,
	}
}

// Board returns the driver options for the GY-89. The BMP180 is left out
// when the barometer is disabled.
func (c *Config) Board() sensors.BoardOpts {
	opts := sensors.BoardOpts{
		LSM303D: &sensors.LSM303DOpts{Addr: c.LSM303DAddr},
		L3GD20:  &sensors.L3GD20Opts{Addr: c.L3GD20Addr},
	}
	if c.BarometerEnabled {
		bmp := sensors.DefaultBMP180Opts
		bmp.Addr = c.BMP180Addr
		bmp.OSS = c.BMP180OSS
		bmp.ConversionDelay = time.Duration(c.BMP180ConversionDelayUS) * time.Microsecond
		bmp.CalibrationRetries = c.BMP180CalibrationRetries
		bmp.SeaLevel = c.SeaLevelPressureHPa
		opts.BMP180 = &bmp
	}
	return opts
}

// WriteDefaults writes a commented config file holding every key at its
// default value.
func WriteDefaults(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "# flight_sensors configuration. Override any key with FLIGHT_<KEY>."); err != nil {
		return err
	}
	for _, k := range keys {
		if k.help != "" {
			if _, err := fmt.Fprintf(w, "\n# %s\n", k.help); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s=%s\n", k.name, k.def); err != nil {
			return err
		}
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
