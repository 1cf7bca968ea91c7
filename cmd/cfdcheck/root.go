package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/config"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/estimate"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// Exit codes.
const (
	exitOK           = 0
	exitInsufficient = 1
	exitInvalid      = 2
)

var (
	// errInsufficient is returned by --strict when a resource falls short.
	// The report has already been printed, so main prints nothing more.
	errInsufficient = errors.New("insufficient hardware")

	// errConfig marks configuration and usage problems.
	errConfig = errors.New("invalid configuration")
)

var (
	cfgFile string
	cfg     *config.Config

	// configErr holds a config file read error until a command runs.
	configErr error

	rootCmd = &cobra.Command{
		Use:   "cfdcheck",
		Short: "Find the hardware bottleneck of a CFD simulation",
		Long: `cfdcheck compares a single-node machine against the mesh it has to solve
and ranks CPU cores, clock speed, L3 cache, RAM capacity, RAM channels,
RAM bandwidth and GPU memory from most to least constraining.

The hardware profile comes from the config file, optionally a named profile,
the local machine (--detect) and finally command line flags.

Examples:
  cfdcheck                          # Evaluate the configured profile
  cfdcheck --cells 25M --cores 32   # Override mesh size and core count
  cfdcheck --case ~/run/motorBike   # Read the cell count from a case
  cfdcheck --detect -o json         # Probe this machine, print JSON
  cfdcheck -p cluster --strict      # Exit 1 if anything is insufficient
  cfdcheck explore                  # Interactive what-if explorer
  cfdcheck serve                    # HTTP API`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		RunE:              runCheck,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/cfdcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	addHardwareFlags(rootCmd.PersistentFlags())
	addCheckFlags(rootCmd)

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errConfig, err)
	})
}

// initConfig reads in config file and environment variables.
func initConfig() {
	config.Configure(viper.GetViper(), cfgFile)

	// A missing file in the search path is fine; an unreadable or explicit
	// missing file is reported when a command runs.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configErr = err
		}
	}
}

// setup decodes the configuration and starts logging before any command.
func setup(cmd *cobra.Command, _ []string) error {
	if configErr != nil {
		return fmt.Errorf("%w: %w", errConfig, configErr)
	}

	bindCheckFlags(cmd)
	c, err := config.Decode(viper.GetViper())
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	cfg = c

	return initLogging(false)
}

// initLogging configures the logging system. The explorer passes tuiMode to
// keep log lines off the terminal.
func initLogging(tuiMode bool) error {
	lc, err := cfg.LoggingSettings()
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	lc.TUIMode = tuiMode
	lc.ConsoleLevel = "warn"
	if getVerbose() {
		lc.Level = "debug"
		lc.ConsoleLevel = "debug"
	}
	if getQuiet() {
		lc.ConsoleLevel = ""
	}

	if err := logging.Init(lc); err != nil {
		if errors.Is(err, logging.ErrInvalidLevel) {
			return fmt.Errorf("%w: %w", errConfig, err)
		}
		// An unwritable log file must not stop an evaluation.
		printVerbose("Logging disabled: %v", err)
	}
	return nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context, which stops watch mode and the HTTP server.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errInsufficient):
		return exitInsufficient
	case errors.Is(err, estimate.ErrInvalidInput),
		errors.Is(err, types.ErrInvalidCells),
		errors.Is(err, config.ErrUnknownProfile),
		errors.Is(err, errConfig):
		return exitInvalid
	default:
		return 1
	}
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
