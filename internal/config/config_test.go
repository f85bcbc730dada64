package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BMP180Addr != 0x77 || cfg.LSM303DAddr != 0x1E || cfg.L3GD20Addr != 0x6A {
		t.Fatalf("addresses = %#x %#x %#x", cfg.BMP180Addr, cfg.LSM303DAddr, cfg.L3GD20Addr)
	}
	if !cfg.BarometerEnabled || cfg.DisplayEnabled {
		t.Fatalf("barometer=%v display=%v", cfg.BarometerEnabled, cfg.DisplayEnabled)
	}
	if cfg.SeaLevelPressureHPa != 1013.25 {
		t.Fatalf("sea level = %v", cfg.SeaLevelPressureHPa)
	}
	if cfg.TopicComposite != "flight/sensors/composite" || cfg.SerialBaudRate != 115200 {
		t.Fatalf("topic=%q baud=%d", cfg.TopicComposite, cfg.SerialBaudRate)
	}
	if cfg.Level() != log.InfoLevel {
		t.Fatalf("level = %v", cfg.Level())
	}

	agg := cfg.Aggregation()
	if agg.OutputPeriod != 150*time.Millisecond || agg.SamplesPerWindow != 5 ||
		agg.InitBackoff != time.Second || agg.InitRetries != 10 || !agg.Barometer {
		t.Fatalf("aggregation = %+v", agg)
	}
	if err := agg.Validate(); err != nil {
		t.Fatalf("default aggregation invalid: %v", err)
	}

	board := cfg.Board()
	if board.BMP180 == nil {
		t.Fatal("BMP180 options missing")
	}
	if board.BMP180.ConversionDelay != 4500*time.Microsecond || board.BMP180.CalibrationRetries != 3 {
		t.Fatalf("bmp180 = %+v", *board.BMP180)
	}
	if board.LSM303D.Addr != 0x1E || board.L3GD20.Addr != 0x6A {
		t.Fatalf("board = %+v", board)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight_sensors.conf")
	content := `# bench setup
I2C_BUS=/dev/i2c-1
BMP180_ADDR=0x76
BMP180_OSS=3
BAROMETER_ENABLED=false
OUTPUT_PERIOD_MS=200
SAMPLES_PER_WINDOW=4
MQTT_BROKER=tcp://localhost:1883
LOG_LEVEL=debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.I2CBus != "/dev/i2c-1" || cfg.BMP180Addr != 0x76 || cfg.BMP180OSS != 3 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.BarometerEnabled {
		t.Fatal("barometer should be disabled")
	}
	if cfg.Board().BMP180 != nil {
		t.Fatal("BMP180 options present with barometer disabled")
	}
	if got := cfg.Aggregation().InterSamplePeriod(); got != 50*time.Millisecond {
		t.Fatalf("inter-sample period = %v, want 50ms", got)
	}
	if cfg.MQTTBroker != "tcp://localhost:1883" || cfg.Level() != log.DebugLevel {
		t.Fatalf("broker=%q level=%v", cfg.MQTTBroker, cfg.Level())
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("FLIGHT_OUTPUT_PERIOD_MS", "300")
	t.Setenv("FLIGHT_DISPLAY_ENABLED", "true")
	cfg, err := Parse(strings.NewReader("OUTPUT_PERIOD_MS=200\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.OutputPeriodMS != 300 || !cfg.DisplayEnabled {
		t.Fatalf("period=%d display=%v", cfg.OutputPeriodMS, cfg.DisplayEnabled)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "IMU_LEFT_SPI_DEVICE=/dev/spidev0.0\n", "unknown config key"},
		{"oss range", "BMP180_OSS=4\n", "BMP180_OSS must be 0-3"},
		{"bad address", "LSM303D_ADDR=zz\n", "invalid LSM303D_ADDR"},
		{"address too wide", "L3GD20_ADDR=0x1FF\n", "7-bit address"},
		{"bad bool", "BAROMETER_ENABLED=maybe\n", "invalid BAROMETER_ENABLED"},
		{"zero samples", "SAMPLES_PER_WINDOW=0\n", "SAMPLES_PER_WINDOW must be positive"},
		{"period too short", "OUTPUT_PERIOD_MS=3\n", "OUTPUT_PERIOD_MS (3)"},
		{"retries", "INIT_RETRIES=0\n", "INIT_RETRIES must be at least 1"},
		{"log level", "LOG_LEVEL=loud\n", "invalid LOG_LEVEL"},
		{"web port", "WEB_SERVER_PORT=70000\n", "WEB_SERVER_PORT must be 0-65535"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.content))
			if err == nil {
				t.Fatalf("Parse(%q) succeeded", tt.content)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.conf")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}

func TestWriteDefaultsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDefaults(&buf); err != nil {
		t.Fatalf("WriteDefaults: %v", err)
	}
	cfg, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse(defaults): %v", err)
	}
	def, _ := Load("")
	if *cfg != *def {
		t.Fatalf("round trip = %+v, want %+v", cfg, def)
	}
}

func TestGlobal(t *testing.T) {
	if err := InitGlobal(""); err != nil {
		t.Fatalf("InitGlobal: %v", err)
	}
	if Get() == nil {
		t.Fatal("Get returned nil after InitGlobal")
	}
}
