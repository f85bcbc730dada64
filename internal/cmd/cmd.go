// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/flight_sensors/internal/app"
	"github.com/relabs-tech/flight_sensors/internal/config"
)

var RootCmd = &cobra.Command{
	Use:          "flight_sensors",
	Short:        "GY-89 sensor acquisition for the flight controller",
	Long:         "flight_sensors polls the LSM303D, L3GD20 and BMP180 of a GY-89 board and publishes time-averaged composite samples.",
	SilenceUsage: true,
}

// loadConfig resolves the config file: --config, then flight_sensors.conf in
// the working directory, then built-in defaults. FLIGHT_<KEY> environment
// variables override all of them.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		}
	}
	if err := config.InitGlobal(path); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return config.Get(), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func AcquireCmdRunE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	simulate, _ := cmd.Flags().GetBool("simulate")
	ctx, stop := signalContext()
	defer stop()
	return app.RunAcquisition(ctx, cfg, simulate)
}

func AcquireCmdFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "configuration file path")
	cmd.Flags().Bool("simulate", false, "run against the simulated GY-89 instead of the I2C bus")
}

var AcquireCmd = &cobra.Command{
	Use: "acquire",
	SuggestFor: []string{
		"acq", "run", "serve",
	},
	Short: "acquire polls the GY-89 and publishes composite samples.",
	Long: `acquire polls the GY-89 and publishes composite samples.
The configuration is read, in order, from:
1. path specified in --config flag
2. flight_sensors.conf in the current directory
3. built-in defaults
Every key can be overwritten by a FLIGHT_<KEY> environment variable.
`,
	Example: `  flight_sensors acquire --config=/etc/flight_sensors.conf
  flight_sensors acquire --simulate`,
	RunE: AcquireCmdRunE,
}

func ConsoleCmdRunE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	port, _ := cmd.Flags().GetString("serial")
	ctx, stop := signalContext()
	defer stop()
	return app.RunConsole(ctx, cfg, port, cmd.OutOrStdout())
}

func ConsoleCmdFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "configuration file path")
	cmd.Flags().String("serial", "", "read $PFSCMP sentences from this serial port instead of MQTT")
}

var ConsoleCmd = &cobra.Command{
	Use: "console",
	SuggestFor: []string{
		"con", "cons",
	},
	Short: "console prints the composite samples published by acquire.",
	Example: `  flight_sensors console
  flight_sensors console --serial /dev/ttyUSB0`,
	RunE: ConsoleCmdRunE,
}

func ProbeCmdFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "configuration file path")
	cmd.Flags().Bool("simulate", false, "probe the simulated GY-89")
	cmd.Flags().Bool("raw", false, "initialize the devices and print one sample in sensor counts")
}

var ProbeCmd = &cobra.Command{
	Use: "probe",
	SuggestFor: []string{
		"pro", "pr", "prob",
	},
	Short: "probe checks the identity registers of the GY-89 devices",
	Long: `probe checks the identity registers of the GY-89 devices.
Devices are not configured; one line per device is printed to stdout.
With --raw the devices are initialized and one sample is printed in sensor
counts.
`,
	Example: `  flight_sensors probe
  flight_sensors probe --simulate --raw`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		simulate, _ := cmd.Flags().GetBool("simulate")
		raw, _ := cmd.Flags().GetBool("raw")
		return app.Probe(cfg, simulate, raw, cmd.OutOrStdout())
	},
}

func InitCmdFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("print", false, "print config to stdout")
	cmd.Flags().BoolP("yes", "y", false, "overwrite")
	cmd.Flags().StringP("output", "o", config.DefaultPath, "specify output path")
}

// InitCmdRunE writes the default configuration.
func InitCmdRunE(cmd *cobra.Command, _ []string) error {
	printFlag, _ := cmd.Flags().GetBool("print")
	outputPath, _ := cmd.Flags().GetString("output")
	overwriteFlag, _ := cmd.Flags().GetBool("yes")

	if printFlag {
		return config.WriteDefaults(cmd.OutOrStdout())
	}
	if _, err := os.Stat(outputPath); err == nil && !overwriteFlag {
		return fmt.Errorf("%s already exists, use --yes to overwrite", outputPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := config.WriteDefaults(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.WithField("path", outputPath).Info("configuration written")
	return nil
}

var InitCmd = &cobra.Command{
	Use: "init",
	SuggestFor: []string{
		"ini", "in",
	},
	Short: "init create a configuration template",
	Long: `init create a configuration template.
If --print flag is present, the configuration will be printed to stdout.
If --output / -o flag is present, the configuration will be saved to the path specified
Otherwise init will output configuration file to ./flight_sensors.conf
If --yes / -y flag is present, an existing file is overwritten
`,
	Example: `  flight_sensors init --print
  flight_sensors init -o /etc/flight_sensors.conf -y`,
	RunE: InitCmdRunE,
}

func getRootCmd() *cobra.Command {
	AcquireCmdFlags(AcquireCmd)
	RootCmd.AddCommand(AcquireCmd)

	ConsoleCmdFlags(ConsoleCmd)
	RootCmd.AddCommand(ConsoleCmd)

	ProbeCmdFlags(ProbeCmd)
	RootCmd.AddCommand(ProbeCmd)

	InitCmdFlags(InitCmd)
	RootCmd.AddCommand(InitCmd)

	return RootCmd
}

func Execute() {
	rootCmd := getRootCmd()
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
