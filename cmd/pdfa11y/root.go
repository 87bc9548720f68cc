package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/a11ykit/pdfa11y/config"
	"github.com/a11ykit/pdfa11y/observability"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdfa11y",
		Short: "PDF accessibility checker and fixer",
		Long: `pdfa11y validates PDF documents against WCAG success criteria,
generates compliance reports, and applies automatic fixes (tagging,
title, language, placeholder alt text) where the validator marks them safe.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file path (YAML)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewFixCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configured YAML file, or the defaults when none is
// given.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// setupLogger builds the console logger shared by all subcommands.
func setupLogger(cmd *cobra.Command, cfg config.Config) observability.Logger {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		level = parsed
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
	return observability.NewZerolog(zl)
}
