package main

import (
	"fmt"
	"log/slog"

	"github.com/nao1215/anteater/internal/config"
	"github.com/nao1215/anteater/internal/log"
	"github.com/spf13/cobra"
)

// flagValue returns the value of a local or inherited flag, or "" when the
// command has no such flag.
func flagValue(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}

// getVerboseFlag retrieves the verbose flag from the command or its parents.
func getVerboseFlag(cmd *cobra.Command) bool {
	return flagValue(cmd, "verbose") == "true"
}

// loadConfig builds the configuration from defaults and the config file
// selected by --config. Global logging flags are applied on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, path, err := config.Load(flagValue(cmd, "config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.ConfigFilePath = path
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.JSONLog = flagValue(cmd, "json-log") == "true"
	return cfg, nil
}

// setupLogger creates the redacting logger selected by cfg. Logs go to the
// command's error stream.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	if cfg.JSONLog {
		return log.NewJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	return log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
}
