package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/estimate"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the estimator over HTTP",
	Long: `Start an HTTP API for evaluating hardware profiles.

Routes:
  POST /api/v1/evaluate    evaluate a JSON profile (omitted fields use the defaults)
  GET  /api/v1/defaults    the default profile
  GET  /api/v1/formats     available ?format= values for /evaluate
  GET  /api/v1/history     recorded evaluations (with history.enabled)
  GET  /health
  GET  /version

The defaults are the profile the check command would evaluate, so hardware
flags and --profile apply here too.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

// runServe runs the HTTP API until interrupted.
func runServe(cmd *cobra.Command, _ []string) error {
	defaults, err := resolveProfile(cmd.Context(), cfg, cmd.Flags())
	if err != nil {
		return err
	}
	if err := estimate.Validate(defaults); err != nil {
		return fmt.Errorf("default profile: %w", err)
	}

	opts := server.Options{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Defaults:     defaults,
		Version:      version,
	}

	if cfg.History.Enabled {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()
		opts.History = store
	}

	printInfo("Serving on %s (Ctrl+C to stop)", opts.Addr)
	return server.New(opts).ListenAndServe(cmd.Context())
}
