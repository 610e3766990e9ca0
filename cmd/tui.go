package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/tasks"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/ui"
)

// TUI launches the interactive terminal UI for browsing and downloading projects.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx, cmd); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/milcubes-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	opts := tasks.DownloadOpts{
		OutputDir:  cmd.String("output"),
		NumWorkers: r.config.Download.Workers,
		RateLimit:  r.config.Download.RateLimit,
	}
	if opts.OutputDir == "" {
		opts.OutputDir = r.config.Download.OutputDir
	}

	model := ui.NewModel(ctx, r.session, r.engine, opts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
