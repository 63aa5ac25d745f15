package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/brkheap/internal/logger"
)

const (
	envPrefix = "BRKCTL"
	keyConfig = "config"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	cfgFile string
	logDir  string

	// Heap flags
	capacityFlag string
	chunkSize    int
	backingFlag  string
)

// counts formats integers with thousands separators.
var counts = message.NewPrinter(language.English)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brkctl",
		Short: "Drive a boundary-tag heap over a simulated break-pointer arena",
		Long: `brkctl exercises an implicit free-list allocator that grows its heap
through a simulated sbrk. It can run the classic demo, replay allocation
traces with invariant checking, and dump allocator metrics.

Every flag can also be set in a config file (--config) or through an
environment variable such as BRKCTL_CHUNK_SIZE.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeConfig(cmd); err != nil {
				return err
			}
			return initLogging()
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and allocator diagnostics")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	pf.BoolVar(&jsonOut, "json", false, "Output in JSON format")
	pf.StringVar(&cfgFile, keyConfig, "", "Config file (yaml, toml or json)")
	pf.StringVar(&logDir, "log-dir", "", "Write diagnostics to a dated file in this directory")

	pf.StringVar(&capacityFlag, "capacity", "100MiB", "Arena capacity (e.g. 1MiB, 65536)")
	pf.IntVar(&chunkSize, "chunk-size", 4096, "Minimum bytes per heap extension")
	pf.StringVar(&backingFlag, "backing", "heap", "Arena backing: heap or mmap")
	return cmd
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// initializeConfig reads the config file, if any, and BRKCTL_* environment
// variables, and applies them to every flag the user did not set.
func initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	}

	// Flags bind to prefixed variables, e.g. --capacity to BRKCTL_CAPACITY.
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := bindFlags(cmd, v); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// bindFlags applies viper values to each cobra flag not set on the command line.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindFlagErr []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == keyConfig {
			return
		}

		// Environment variables can't have dashes, so --chunk-size binds to BRKCTL_CHUNK_SIZE.
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				bindFlagErr = append(bindFlagErr, fmt.Errorf("binding env to flag %q: %w", f.Name, err))
				return
			}
		}

		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				bindFlagErr = append(bindFlagErr, fmt.Errorf("setting flag %q value: %w", f.Name, err))
				return
			}
		}
	})
	return errors.Join(bindFlagErr...)
}

// initLogging routes allocator diagnostics to stderr (or --log-dir) when
// --verbose is set. Otherwise the env-driven default stays in place.
func initLogging() error {
	if !verbose && logDir == "" {
		return nil
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return logger.Init(logger.Options{
		Enabled: true,
		JSON:    jsonOut,
		Output:  os.Stderr,
		LogDir:  logDir,
		Level:   level,
	})
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
