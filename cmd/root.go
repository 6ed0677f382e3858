// =============================================================================
// FX Booking Transformer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command all other commands attach to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (fxbt)
//   ├── transformCmd (fxbt transform)
//   ├── validateCmd  (fxbt validate)
//   ├── shapesCmd    (fxbt shapes)
//   └── versionCmd   (fxbt version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --env-file)
//   2. Loading the .env file into the environment
//   3. Loading the main configuration and building the logger
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
	"github.com/ginjaninja78/fx-booking-transformer/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile is loaded into the environment before the configuration is read,
// so FXBT_* variables can live next to the binary.
var envFile string

// verbose forces debug logging regardless of the configured level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "fxbt",
	Short: "FX Booking Transformer - Turn aggregated FX hedge records into booking XML",
	Long: `FX Booking Transformer reads aggregated FX hedge records for an instruction
event (Inception, RolledOver) from files or PostgreSQL, groups them by deal,
applies the transformation strategy of each hedge instrument type (FX Swap,
NDF, FX Spot) and writes the resulting bookings as XML.

Key Features:
  - One YAML configuration per instruction event
  - Field overrides per typology and transformation rules on the output
  - Concurrent processing of files and deal groups
  - Optional publishing of bookings to RabbitMQ
  - Automatic file archival on successful processing

Example Usage:
  fxbt transform                           # Process all files in the input directory
  fxbt transform --event Inception --db    # Read Inception records from PostgreSQL
  fxbt validate                            # Validate configuration without processing
  fxbt shapes --from Inception --to TradeLeg`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command. It is called by main.main().
// Interrupts cancel the running command through its context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	cobra.OnInitialize(loadEnvFile)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Environment file loaded before the configuration",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// loadEnvFile loads envFile when it exists. Variables already set in the
// environment win.
func loadEnvFile() {
	if envFile == "" {
		return
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", envFile, err)
	}
}

// =============================================================================
// RUNTIME SETUP
// =============================================================================

// session is what every processing command needs: the main configuration
// and a logger built from it.
type session struct {
	main     *config.MainConfig
	logger   *logrus.Logger
	closeLog func() error
}

func (s *session) Close() {
	if err := s.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
	}
}

func setup() (*session, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	level := mainConfig.LogLevel
	if verbose {
		level = "debug"
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:  level,
		Format: mainConfig.LogFormat,
		File:   mainConfig.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return &session{main: mainConfig, logger: logger, closeLog: closeLog}, nil
}
