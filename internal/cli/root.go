// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	backend    string
	logLevel   string
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "ragchat",
		Short:         "Chat with a retrieval-augmented backend",
		Long:          `ragchat streams answers and cited sources from a RAG backend into your terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default is ~/.ragchat/config.toml)")
	flags.StringVarP(&opts.backend, "backend", "b", "", "backend base URL (overrides config and "+config.EnvBackendURL+")")
	flags.StringVarP(&opts.logLevel, "log-level", "l", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newTUICmd(opts),
		newAskCmd(opts),
		newChatCmd(opts),
		newConfigCmd(opts),
		newMockBackendCmd(opts),
		newVersionCmd(),
	)
	return root
}

// resolvedConfigPath returns the --config value or the default location.
func (o *rootOptions) resolvedConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	path, err := config.ConfigPath()
	if err != nil {
		return ""
	}
	return path
}

// loadConfig loads the config file, environment and flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromPath(o.resolvedConfigPath())
	if err != nil {
		return nil, err
	}
	if err := o.applyFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags overlays command-line flags on cfg and revalidates it.
func (o *rootOptions) applyFlags(cfg *config.Config) error {
	if o.backend == "" && o.logLevel == "" {
		return nil
	}
	if o.backend != "" {
		cfg.Backend.URL = o.backend
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// setupLogging sends logs to the configured file so they never mix with
// terminal output.
func setupLogging(cfg *config.Config) {
	if err := logging.Init(cfg.Logging.Level, cfg.LogFile()); err != nil {
		fmt.Fprintln(os.Stderr, dimStyle.Render("warning: file logging disabled: "+err.Error()))
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ragchat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
