// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/logging"
	"github.com/jeranaias/ragchat-tui/internal/ui/chat"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the full-screen chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
}

// runTUI starts the Bubble Tea program and hot-reloads the config file
// while it runs.
func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)
	defer logging.Close()

	logging.Info("tui starting", "version", Version, "backend", cfg.Backend.URL)

	theme := styles.NewTheme(cfg.UI.Theme)
	m := chat.New(cfg, theme)

	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.Mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(m, progOpts...)
	// The model is copied into the program; the runner is shared by
	// pointer, so attaching through m reaches the running model.
	m.AttachProgram(p)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	watchConfig(ctx, opts, p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// watchConfig forwards config file changes to the program. Flags keep
// precedence over the reloaded file.
func watchConfig(ctx context.Context, opts *rootOptions, p chat.Sender) {
	path := opts.resolvedConfigPath()
	if path == "" {
		return
	}
	err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
		if err == nil {
			err = opts.applyFlags(cfg)
		}
		if err != nil {
			p.Send(chat.ConfigReloadedMsg{Err: err})
			return
		}
		p.Send(chat.ConfigReloadedMsg{Config: cfg})
	})
	if err != nil {
		logging.Warn("config watch disabled", "path", path, "error", err)
	}
}
