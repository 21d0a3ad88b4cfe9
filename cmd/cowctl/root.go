package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joshuapare/cowchunk/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string

	// cfg is the effective configuration: defaults, then the config file,
	// then any flags set on the command line.
	cfg = defaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "cowctl",
	Short: "Allocate, copy and inspect copy-on-write memory chunks",
	Long: `cowctl drives the cowchunk runtime: it allocates fixed-size chunks,
copies them eagerly or lazily, and shows when lazy copies are materialized.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	pf.BoolVar(&jsonOut, "json", false, "Output in JSON format")
	pf.StringVarP(&configPath, "config", "c", "", "TOML config file")
	pf.Int("chunk-size", cfg.ChunkSize, "Chunk size in bytes (multiple of the page size)")
	pf.Bool("prefault", cfg.Prefault, "Populate pages when a chunk is allocated")
	pf.String("log-level", cfg.Log.Level, "Log level: debug, info, warn, error")
	pf.String("log-dir", cfg.Log.Dir, "Write daily log files to this directory instead of stderr")
	pf.Bool("log-json", cfg.Log.JSON, "Log JSON records")
}

// setup loads the config file, overlays flags and initializes logging.
func setup(cmd *cobra.Command) error {
	c := defaultConfig()
	if configPath != "" {
		loaded, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		c = loaded
	}
	if err := applyFlags(&c, cmd.Flags()); err != nil {
		return err
	}
	if verbose && !c.Log.Enabled {
		c.Log.Enabled = true
		c.Log.Level = "debug"
	}
	cfg = c

	return logger.Init(logger.Options{
		Enabled: cfg.Log.Enabled,
		Dir:     cfg.Log.Dir,
		Level:   logger.ParseLevel(cfg.Log.Level),
		JSON:    cfg.Log.JSON,
	})
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		printError("%v\n", err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
