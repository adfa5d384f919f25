package main

import (
	"context"

	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/tui/styles"
	"github.com/urfave/cli/v3"
)

// awaitSettled waits until a toggle is confirmed or rolled back
func (r *Runner) awaitSettled(ctx context.Context, target domain.EngagementTarget, id uint64) (domain.EngagementChanged, error) {
	ev, err := r.await(ctx, func(ev domain.Event) bool {
		c, ok := ev.(domain.EngagementChanged)
		return ok && c.Target == target && c.ID == id && c.Phase != domain.PhaseOptimistic
	})
	if err != nil {
		return domain.EngagementChanged{}, err
	}
	c := ev.(domain.EngagementChanged)
	return c, c.Err
}

// Star toggles the star on a video, or a photo with --photo
func (r *Runner) Star(ctx context.Context, cmd *cli.Command) error {
	return r.toggleMedia(ctx, cmd, false)
}

// Downvote toggles the downvote on a video, or a photo with --photo
func (r *Runner) Downvote(ctx context.Context, cmd *cli.Command) error {
	return r.toggleMedia(ctx, cmd, true)
}

func (r *Runner) toggleMedia(ctx context.Context, cmd *cli.Command, downvote bool) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	s, err := r.open()
	if err != nil {
		return err
	}

	if cmd.Bool("photo") {
		p, err := awaitItem[domain.Photo](ctx, r, s.Catalog.Photo(id))
		if err != nil {
			return err
		}
		toggle := s.Engagement.ToggleStarPhoto
		if downvote {
			toggle = s.Engagement.ToggleDownvotePhoto
		}
		if err := toggle(p); err != nil {
			return err
		}
		c, err := r.awaitSettled(ctx, domain.TargetPhoto, id)
		if err != nil {
			return err
		}
		r.printFlags(c.Photo.Title, c.Photo.Starred, c.Photo.Stars, c.Photo.Downvoted, c.Photo.Downvotes)
		return nil
	}

	v, err := r.fetchVideo(ctx, id)
	if err != nil {
		return err
	}
	toggle := s.Engagement.ToggleStar
	if downvote {
		toggle = s.Engagement.ToggleDownvote
	}
	if err := toggle(v); err != nil {
		return err
	}
	c, err := r.awaitSettled(ctx, domain.TargetVideo, id)
	if err != nil {
		return err
	}
	r.printFlags(c.Video.Title, c.Video.Starred, c.Video.Stars, c.Video.Downvoted, c.Video.Downvotes)
	return nil
}

func (r *Runner) printFlags(title string, starred bool, stars int, downvoted bool, downvotes int) {
	r.writePlainln("%s %s", styles.SuccessStyle.Render("✓"), title)
	r.writePlainln("  Stars:     %d%s", stars, marker(starred, " (starred)"))
	r.writePlainln("  Downvotes: %d%s", downvotes, marker(downvoted, " (downvoted)"))
}

// Follow toggles following a user
func (r *Runner) Follow(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	s, err := r.open()
	if err != nil {
		return err
	}
	u, err := awaitItem[domain.User](ctx, r, s.Catalog.User(id))
	if err != nil {
		return err
	}
	if err := s.Engagement.ToggleFollow(u); err != nil {
		return err
	}
	c, err := r.awaitSettled(ctx, domain.TargetUser, id)
	if err != nil {
		return err
	}
	verb := "Unfollowed"
	if c.User.Following {
		verb = "Following"
	}
	r.writePlainln("%s %s %s (%d followers)", styles.SuccessStyle.Render("✓"), verb, c.User.Name(), c.User.FollowersCount)
	return nil
}

func engagementCommands(r *Runner) []*cli.Command {
	photoFlag := func() cli.Flag {
		return &cli.BoolFlag{
			Name:  "photo",
			Usage: "The id names a photo",
		}
	}
	return []*cli.Command{
		{
			Name:      "star",
			Usage:     "Star or unstar a video",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags:     []cli.Flag{photoFlag()},
			Action:    r.Star,
		},
		{
			Name:      "downvote",
			Usage:     "Downvote a video or take the downvote back",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags:     []cli.Flag{photoFlag()},
			Action:    r.Downvote,
		},
		{
			Name:      "follow",
			Usage:     "Follow or unfollow a user",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Action:    r.Follow,
		},
	}
}
