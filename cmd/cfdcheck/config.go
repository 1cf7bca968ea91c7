package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/config"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage cfdcheck configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/cfdcheck/config.yaml (if set)
  2. ~/.config/cfdcheck/config.yaml

Environment variables can override config file settings using the CFDCHECK_ prefix:
  CFDCHECK_HARDWARE_CELLS=25M
  CFDCHECK_HARDWARE_CORES=32
  CFDCHECK_OUTPUT_FORMAT=json`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

var configWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Describe a machine interactively",
	Long: `Walk through the hardware fields of a profile and save the answers to the
config file, either as the default hardware section or as a named profile.

Fields start from the current configuration (or the detected machine with
--detect).`,
	Args: cobra.NoArgs,
	RunE: runConfigWizard,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configWizardCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(_ *cobra.Command, _ []string) error {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	hw := cfg.Hardware
	fmt.Println("Hardware:")
	fmt.Println("----------------------")
	fmt.Printf("cells:                %s\n", hw.Cells)
	fmt.Printf("ram_capacity_gb:      %g\n", hw.RAMCapacityGB)
	fmt.Printf("ram_channels:         %d\n", hw.RAMChannels)
	fmt.Printf("ram_speed_mts:        %g\n", hw.RAMSpeedMTs)
	fmt.Printf("processors:           %d\n", hw.Processors)
	fmt.Printf("cores:                %d\n", hw.Cores)
	fmt.Printf("clock_ghz:            %g\n", hw.ClockGHz)
	fmt.Printf("l3_cache_mb:          %g\n", hw.L3CacheMB)
	fmt.Printf("l3_per_processor:     %t\n", hw.L3PerProcessor)
	fmt.Printf("gpu_vram_gb:          %g\n", hw.GPUVRAMGB)
	fmt.Printf("storage_write_gbs:    %g\n", hw.StorageWriteGBs)

	fmt.Println("\nProfiles:")
	fmt.Println("----------------------")
	names := cfg.ProfileNames()
	if len(names) == 0 {
		fmt.Println("(none)")
	}
	for _, name := range names {
		p, err := cfg.Profile(name)
		if err != nil {
			fmt.Printf("%-20s  invalid: %v\n", name, err)
			continue
		}
		fmt.Printf("%-20s  %s cells, %d cores, %g GB RAM\n", name, types.FormatCells(p.Cells), p.TotalCores(), p.RAMCapacityGB)
	}

	fmt.Println("\nSettings:")
	fmt.Println("----------------------")
	fmt.Printf("output.format:        %s\n", cfg.Output.Format)
	fmt.Printf("logging.level:        %s\n", cfg.Logging.Level)
	fmt.Printf("history.enabled:      %t\n", cfg.History.Enabled)
	fmt.Printf("history.path:         %s\n", cfg.HistoryPath())
	fmt.Printf("history.retention:    %d days\n", cfg.History.RetentionDays)
	fmt.Printf("server.addr:          %s\n", cfg.Server.Addr)

	// Show any environment overrides
	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	anyOverrides := false
	for _, key := range viper.AllKeys() {
		name := envName(key)
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// envName returns the environment variable that overrides a config key.
func envName(key string) string {
	return "CFDCHECK_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	// Ensure config file exists
	configPath, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	// Determine editor
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'cfdcheck config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}

// runConfigWizard collects a profile interactively and saves it.
func runConfigWizard(cmd *cobra.Command, _ []string) error {
	start, err := resolveProfile(cmd.Context(), cfg, cmd.Flags())
	if err != nil {
		return err
	}

	values := newWizardValues(start)
	if err := newWizardForm(values).Run(); err != nil {
		return fmt.Errorf("wizard cancelled: %w", err)
	}

	hw, err := values.hardware()
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}

	path := viper.ConfigFileUsed()
	if path == "" {
		if path, err = config.WriteDefault(); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	}

	if err := config.SaveProfile(path, values.name, hw); err != nil {
		return err
	}

	if values.name == "" {
		printInfo("Saved default hardware to %s", path)
	} else {
		printInfo("Saved profile %q to %s", values.name, path)
		printInfo("Use 'cfdcheck -p %s' to evaluate it.", values.name)
	}
	return nil
}
