package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/tui/styles"
	"github.com/urfave/cli/v3"
)

// cancelGrace bounds the wait for a cancelled transfer to clean up
const cancelGrace = 10 * time.Second

// Download fetches a video for offline playback. Interrupting the command
// cancels the transfer and removes the partial file.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	v, err := r.fetchVideo(ctx, id)
	if err != nil {
		return err
	}
	if v.DownloadState == domain.Downloaded {
		r.writePlainln("Already downloaded: %s", v.LocalPath)
		return nil
	}
	if err := r.sdk.Downloads.Start(v); err != nil {
		return err
	}

	for {
		ev, err := r.await(ctx, func(ev domain.Event) bool { return downloadEventFor(ev, id) })
		if err != nil {
			r.sdk.Downloads.Cancel(v)
			r.writePlain("\nCancelling...\n")
			waitCtx, cancel := context.WithTimeout(context.Background(), cancelGrace)
			defer cancel()
			_, _ = r.await(waitCtx, func(ev domain.Event) bool {
				switch ev.(type) {
				case domain.DownloadCancelled, domain.DownloadFinished, domain.DownloadFailed:
					return downloadEventFor(ev, id)
				}
				return false
			})
			return err
		}

		switch ev := ev.(type) {
		case domain.DownloadStarted:
			r.writePlainln("Downloading %s", styles.TitleStyle.Render(v.Title))
		case domain.DownloadProgress:
			r.writeProgress(ev)
		case domain.DownloadFinished:
			r.writePlain("\n%s Saved to %s\n", styles.SuccessStyle.Render("✓"), ev.Video.LocalPath)
			return nil
		case domain.DownloadCancelled:
			r.writePlain("\n")
			return errors.New("download cancelled")
		case domain.DownloadFailed:
			r.writePlain("\n")
			return ev.Err
		}
	}
}

func downloadEventFor(ev domain.Event, id uint64) bool {
	switch ev := ev.(type) {
	case domain.DownloadStarted:
		return ev.Video.ID == id
	case domain.DownloadProgress:
		return ev.Video.ID == id
	case domain.DownloadFinished:
		return ev.Video.ID == id
	case domain.DownloadCancelled:
		return ev.Video.ID == id
	case domain.DownloadFailed:
		return ev.Video.ID == id
	}
	return false
}

func (r *Runner) writeProgress(p domain.DownloadProgress) {
	if p.Total <= 0 {
		r.writePlain("\r  %s", formatBytes(p.Written))
		return
	}
	f := p.Fraction()
	r.writePlain("\r  %s %3.0f%%  %s / %s", styles.RenderProgressBar(f, 30), f*100, formatBytes(p.Written), formatBytes(p.Total))
}

// Downloads lists offline copies
func (r *Runner) Downloads(ctx context.Context, cmd *cli.Command) error {
	s, err := r.open()
	if err != nil {
		return err
	}
	recs, err := s.Downloads.Downloaded()
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(recs)
	}
	if len(recs) == 0 {
		r.writePlainln("No downloads")
		return nil
	}
	var total int64
	for _, rec := range recs {
		total += rec.Size
		r.writePlainln("%8d  %s  %9s  %s", rec.VideoID, styles.Pad(styles.Truncate(rec.Title, 40), 40), formatBytes(rec.Size), styles.DimStyle.Render(rec.Path))
	}
	r.writePlainln("\n%d videos, %s", len(recs), formatBytes(total))
	return nil
}

// Delete removes one offline copy, or all of them with --all
func (r *Runner) Delete(ctx context.Context, cmd *cli.Command) error {
	s, err := r.open()
	if err != nil {
		return err
	}

	if cmd.Bool("all") {
		recs, err := s.Downloads.Downloaded()
		if err != nil {
			return err
		}
		videos := make([]*domain.Video, len(recs))
		for i, rec := range recs {
			videos[i] = &domain.Video{ID: rec.VideoID, Title: rec.Title}
		}
		if err := s.Downloads.DeleteAll(videos...); err != nil {
			return err
		}
		var failed int
		for range recs {
			ev, err := r.await(ctx, func(ev domain.Event) bool {
				_, ok := ev.(domain.DownloadDeleted)
				return ok
			})
			if err != nil {
				return err
			}
			if d := ev.(domain.DownloadDeleted); d.Err != nil {
				failed++
				r.writePlainln("%s %d: %v", styles.ErrorStyle.Render("✗"), d.VideoID, d.Err)
			}
		}
		r.writePlainln("%s Deleted %d downloads", styles.SuccessStyle.Render("✓"), len(recs)-failed)
		return nil
	}

	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := s.Downloads.Delete(&domain.Video{ID: id}); err != nil {
		return err
	}
	ev, err := r.await(ctx, func(ev domain.Event) bool {
		d, ok := ev.(domain.DownloadDeleted)
		return ok && d.VideoID == id
	})
	if err != nil {
		return err
	}
	if d := ev.(domain.DownloadDeleted); d.Err != nil {
		return d.Err
	}
	r.writePlainln("%s Deleted download of %d", styles.SuccessStyle.Render("✓"), id)
	return nil
}

// Play opens a video in the configured player. --offline plays the
// downloaded copy without contacting the service.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	s, err := r.open()
	if err != nil {
		return err
	}
	at := cmd.Duration("at")

	if cmd.Bool("offline") {
		v := &domain.Video{ID: id, Title: fmt.Sprintf("video %d", id)}
		if err := s.Playback.PlayOffline(ctx, v, at); err != nil {
			return err
		}
		r.writePlainln("Playing %s", s.Playback.Current())
		return nil
	}

	v, err := r.fetchVideo(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Playback.Play(ctx, v, at); err != nil {
		return err
	}
	r.writePlainln("Playing %s", styles.TitleStyle.Render(v.Title))
	return nil
}

func downloadCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:      "download",
			Usage:     "Download a video for offline playback",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Action:    r.Download,
		},
		{
			Name:   "downloads",
			Usage:  "List downloaded videos",
			Flags:  []cli.Flag{jsonFlag()},
			Action: r.Downloads,
		},
		{
			Name:      "delete",
			Usage:     "Delete a downloaded video",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "all",
					Usage: "Delete every download and stray partial file",
				},
			},
			Action: r.Delete,
		},
		{
			Name:      "play",
			Usage:     "Play a video in the external player",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "offline",
					Usage: "Play the downloaded copy",
				},
				&cli.DurationFlag{
					Name:  "at",
					Usage: "Start offset, e.g. 1m30s",
				},
			},
			Action: r.Play,
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for x := n / unit; x >= unit; x /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
