package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/config"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/estimate"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/output"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/watch"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a hardware profile (default command)",
	Long: `Evaluate the hardware profile and print every resource ranked from most
to least constraining.

A ratio below 100 % means the resource is under-provisioned for the mesh.
With --strict the exit status is 1 when any resource is insufficient; invalid
input or configuration exits with 2.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	addCheckFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

// addCheckFlags registers the output and run-mode flags of a check.
func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", fmt.Sprintf("output format: %s", strings.Join(output.Available(), ", ")))
	cmd.Flags().String("template", "", "Go template for -o template")
	cmd.Flags().Bool("strict", false, "exit 1 when any resource is insufficient")
	cmd.Flags().Bool("record", false, "save the evaluation to history")
	cmd.Flags().Bool("watch", false, "re-evaluate when the config file or case mesh changes")
}

// bindCheckFlags binds the running command's flags to their config keys.
// Root and check share flag names, so binding happens once the command is
// known.
func bindCheckFlags(cmd *cobra.Command) {
	for key, name := range map[string]string{
		"output.format":   "output",
		"output.template": "template",
		"history.enabled": "record",
	} {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

// runCheck is the check command handler.
func runCheck(cmd *cobra.Command, _ []string) error {
	formatter, err := resolveFormatter(cfg)
	if err != nil {
		return err
	}

	if watchMode, _ := cmd.Flags().GetBool("watch"); watchMode {
		return runWatch(cmd, formatter)
	}

	_, err = evaluateAndRender(cmd, formatter, os.Stdout)
	return err
}

// resolveFormatter returns the formatter named by output.format.
func resolveFormatter(c *config.Config) (output.Formatter, error) {
	name := c.Output.Format
	if name == "" {
		name = config.DefaultOutputFormat
	}

	if name == "template" {
		if c.Output.Template == "" {
			return nil, fmt.Errorf("%w: --template is required when using -o template", errConfig)
		}
		return output.NewTemplateFormatter(c.Output.Template), nil
	}

	formatter, err := output.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown output format %q: available formats are %v", errConfig, name, output.Available())
	}
	return formatter, nil
}

// evaluateAndRender evaluates the resolved profile and writes the rendered
// report to w. Nothing is written when the profile is invalid.
func evaluateAndRender(cmd *cobra.Command, formatter output.Formatter, w io.Writer) (*types.Report, error) {
	p, err := resolveProfile(cmd.Context(), cfg, cmd.Flags())
	if err != nil {
		return nil, err
	}

	report, err := estimate.Evaluate(p)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, err
	}

	if cfg.History.Enabled {
		if err := recordReport(report, "check"); err != nil {
			return report, err
		}
	}

	if strict, _ := cmd.Flags().GetBool("strict"); strict && report.Insufficient() > 0 {
		return report, errInsufficient
	}
	return report, nil
}

// runWatch evaluates once, then again whenever the config file or the case
// mesh changes, until interrupted.
func runWatch(cmd *cobra.Command, formatter output.Formatter) error {
	w, err := watch.New(watch.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	configFile := viper.ConfigFileUsed()
	var watched []string
	if configFile != "" {
		if err := w.AddFile(configFile); err != nil {
			return fmt.Errorf("failed to watch %s: %w", configFile, err)
		}
		watched = append(watched, configFile)
	}
	if dir, _ := cmd.Flags().GetString("case"); dir != "" {
		roots, err := meshRoots(dir)
		if err != nil {
			return err
		}
		for _, root := range roots {
			if err := w.AddTree(root); err != nil {
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}
		}
		watched = append(watched, roots...)
	}
	if len(watched) == 0 {
		return fmt.Errorf("%w: --watch needs a config file or --case", errConfig)
	}

	log := logging.Get("cli")
	evaluate := func() {
		if _, err := evaluateAndRender(cmd, formatter, os.Stdout); err != nil && !errors.Is(err, errInsufficient) {
			printError("%v", err)
		}
	}

	evaluate()
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", strings.Join(watched, ", "))
	}

	w.Run(cmd.Context(), func(paths []string) {
		log.Info("inputs changed", "paths", paths)
		if configFile != "" && contains(paths, configFile) {
			if err := reloadConfig(); err != nil {
				printError("%v", err)
				return
			}
		}
		if !getQuiet() {
			fmt.Fprintln(os.Stderr, "---")
		}
		evaluate()
	})
	return nil
}

// reloadConfig re-reads the config file into cfg.
func reloadConfig() error {
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	c, err := config.Decode(viper.GetViper())
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	cfg = c
	return nil
}

// meshRoots returns the directories holding the mesh of a case.
func meshRoots(caseDir string) ([]string, error) {
	dir, err := config.ExpandPath(caseDir)
	if err != nil {
		return nil, err
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var roots []string
	if info, err := os.Stat(filepath.Join(dir, "constant")); err == nil && info.IsDir() {
		roots = append(roots, filepath.Join(dir, "constant"))
	}
	procs, _ := filepath.Glob(filepath.Join(dir, "processor*", "constant"))
	roots = append(roots, procs...)
	if len(roots) == 0 {
		roots = append(roots, dir)
	}
	return roots, nil
}

func contains(paths []string, want string) bool {
	abs, err := filepath.Abs(want)
	if err != nil {
		abs = want
	}
	for _, p := range paths {
		if p == abs {
			return true
		}
	}
	return false
}
