package main

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/littlstar/lstar/internal/adapter"
	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/tui"
	"github.com/urfave/cli/v3"
)

// Browse runs the terminal browser
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	scope, err := domain.ParseScope(cmd.String("scope"))
	if err != nil {
		return err
	}

	// Console logging would draw over the UI
	if r.config.Logging.File == "" {
		r.logger = adapter.NullLogger()
		slog.SetDefault(r.logger)
	}

	s, err := r.open()
	if err != nil {
		return err
	}

	listing := tui.Listing{Op: videoOp(scope), Scope: scope, Title: scope.String()}
	if q := cmd.String("query"); q != "" {
		listing = tui.Listing{Op: domain.OpSearchVideos, Scope: domain.SearchScope(), Query: q, Title: fmt.Sprintf("search %q", q)}
	}

	model := tui.NewModel(tui.Services{
		Catalog:    s.Catalog,
		Downloads:  s.Downloads,
		Engagement: s.Engagement,
		Player:     s.Playback,
	}, r.events, listing)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	r.logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		r.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	r.logger.Info("shutting down")
	return nil
}

func browseCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "browse",
			Usage: "Browse videos in the terminal",
			Flags: []cli.Flag{
				scopeFlag(),
				&cli.StringFlag{
					Name:    "query",
					Aliases: []string{"q"},
					Usage:   "Browse search results instead of a listing",
				},
			},
			Action: r.Browse,
		},
	}
}
