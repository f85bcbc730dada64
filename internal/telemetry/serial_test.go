package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/relabs-tech/flight_sensors/internal/imu"
)

func TestFormatSentence(t *testing.T) {
	got := FormatSentence(sampleComposite(false))
	wantBody := "$PFSCMP,7,0.500,-1.250,9.750,0.2000,-0.2500,0.5000,1.500,-2.500,30.000,,,*"
	if !strings.HasPrefix(got, wantBody) {
		t.Fatalf("FormatSentence = %q, want prefix %q", got, wantBody)
	}
	if len(got) != len(wantBody)+2 {
		t.Fatalf("checksum suffix missing in %q", got)
	}

	withBaro := FormatSentence(sampleComposite(true))
	if !strings.Contains(withBaro, ",30.000,15.5,699.64,3016.5*") {
		t.Fatalf("barometer fields missing in %q", withBaro)
	}
}

func TestSentenceRoundTrip(t *testing.T) {
	for _, withBaro := range []bool{false, true} {
		want := sampleComposite(withBaro)
		got, err := ParseSentence(FormatSentence(want))
		if err != nil {
			t.Fatalf("baro=%v: ParseSentence: %v", withBaro, err)
		}
		if got.Seq != want.Seq || got.Accel != want.Accel || got.Mag != want.Mag || got.Gyro != want.Gyro {
			t.Fatalf("baro=%v: got %+v, want %+v", withBaro, got, want)
		}
		if (got.Baro == nil) != (want.Baro == nil) {
			t.Fatalf("baro=%v: got baro %+v", withBaro, got.Baro)
		}
		if want.Baro != nil && *got.Baro != *want.Baro {
			t.Fatalf("baro = %+v, want %+v", *got.Baro, *want.Baro)
		}
	}
}

func TestParseSentenceRejectsBadChecksum(t *testing.T) {
	line := FormatSentence(sampleComposite(false))
	bad := line[:len(line)-2] + "00"
	if bad == line {
		bad = line[:len(line)-2] + "FF"
	}
	if _, err := ParseSentence(bad); err == nil {
		t.Fatal("ParseSentence accepted a bad checksum")
	}
}

func TestSerialSinkWritesCRLFLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewSerialSink(&buf)
	if err := s.Publish(sampleComposite(true)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := s.Publish(sampleComposite(false)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	lines := strings.SplitAfter(buf.String(), "\r\n")
	if len(lines) != 3 || lines[2] != "" {
		t.Fatalf("output = %q", buf.String())
	}
	for _, l := range lines[:2] {
		if !strings.HasPrefix(l, "$PFSCMP,") || !strings.HasSuffix(l, "\r\n") {
			t.Fatalf("line = %q", l)
		}
	}
}

func TestReadSentencesSkipsNoise(t *testing.T) {
	good := sampleComposite(true)
	badSum := FormatSentence(good)
	badSum = badSum[:len(badSum)-2] + "ZZ"

	input := strings.Join([]string{
		"boot: GY-89 ready",
		FormatSentence(good),
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47",
		badSum,
		FormatSentence(sampleComposite(false)),
	}, "\r\n") + "\r\n"

	var got []imu.Composite
	err := ReadSentences(context.Background(), strings.NewReader(input), func(c imu.Composite) {
		got = append(got, c)
	})
	if err != nil {
		t.Fatalf("ReadSentences: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("decoded %d composites, want 2", len(got))
	}
	if got[0].Baro == nil || got[1].Baro != nil {
		t.Fatalf("baro presence mismatch: %+v / %+v", got[0].Baro, got[1].Baro)
	}
}

func TestReadSentencesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	input := FormatSentence(sampleComposite(false)) + "\r\n"
	if err := ReadSentences(ctx, strings.NewReader(input), func(imu.Composite) { calls++ }); err != nil {
		t.Fatalf("ReadSentences: %v", err)
	}
	if calls != 0 {
		t.Fatalf("callback ran %d times after cancel", calls)
	}
}
