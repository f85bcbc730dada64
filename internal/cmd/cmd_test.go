package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/flight_sensors/internal/config"
)

func newInitCmd(args ...string) (*cobra.Command, *bytes.Buffer) {
	c := &cobra.Command{Use: "init", RunE: InitCmdRunE}
	InitCmdFlags(c)
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetArgs(args)
	return c, &out
}

func TestInitPrint(t *testing.T) {
	c, out := newInitCmd("--print")
	if err := c.Execute(); err != nil {
		t.Fatalf("init --print: %v", err)
	}
	if !strings.Contains(out.String(), "OUTPUT_PERIOD_MS=150\n") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestInitWritesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight_sensors.conf")

	c, _ := newInitCmd("-o", path)
	if err := c.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%s): %v", path, err)
	}
	if cfg.SamplesPerWindow != 5 {
		t.Fatalf("SamplesPerWindow = %d", cfg.SamplesPerWindow)
	}

	c, _ = newInitCmd("-o", path)
	if err := c.Execute(); err == nil {
		t.Fatal("init overwrote an existing file without --yes")
	}

	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, _ = newInitCmd("-o", path, "-y")
	if err := c.Execute(); err != nil {
		t.Fatalf("init -y: %v", err)
	}
	if _, err := config.Load(path); err != nil {
		t.Fatalf("overwritten file does not load: %v", err)
	}
}

func TestRootCommandTree(t *testing.T) {
	root := getRootCmd()
	for _, name := range []string{"acquire", "console", "probe", "init"} {
		c, _, err := root.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Fatalf("subcommand %s: %v", name, err)
		}
	}
	if f := AcquireCmd.Flags().Lookup("simulate"); f == nil {
		t.Fatal("acquire has no --simulate flag")
	}
	if f := ConsoleCmd.Flags().Lookup("serial"); f == nil {
		t.Fatal("console has no --serial flag")
	}
}
