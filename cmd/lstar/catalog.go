package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/search"
	"github.com/littlstar/lstar/internal/tui/styles"
	"github.com/urfave/cli/v3"
)

func videoOp(scope domain.Scope) domain.Op {
	switch scope.Kind {
	case domain.ScopeFeatured:
		return domain.OpFeaturedVideos
	case domain.ScopeCategory:
		return domain.OpCategoryVideos
	case domain.ScopeChannel:
		return domain.OpChannelVideos
	case domain.ScopeUser:
		return domain.OpUserVideos
	case domain.ScopeSearch:
		return domain.OpSearchVideos
	}
	return domain.OpVideos
}

func photoOp(scope domain.Scope) domain.Op {
	switch scope.Kind {
	case domain.ScopeFeatured:
		return domain.OpFeaturedPhotos
	case domain.ScopeCategory:
		return domain.OpCategoryPhotos
	case domain.ScopeChannel:
		return domain.OpChannelPhotos
	case domain.ScopeUser:
		return domain.OpUserPhotos
	case domain.ScopeSearch:
		return domain.OpSearchPhotos
	}
	return domain.OpPhotos
}

func scopeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "scope",
		Aliases: []string{"s"},
		Usage:   "Listing: all, featured, category:<slug>, channel:<slug> or user:<id>",
		Value:   "all",
	}
}

// Videos lists one page of videos in a scope
func (r *Runner) Videos(ctx context.Context, cmd *cli.Command) error {
	scope, err := domain.ParseScope(cmd.String("scope"))
	if err != nil {
		return err
	}
	s, err := r.open()
	if err != nil {
		return err
	}
	page, err := awaitList[domain.Video](ctx, r, s.Catalog.VideosIn(videoOp(scope), scope, "", cmd.Int("page")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page)
	}
	r.printVideos(page.Items)
	r.writePageFooter(page.CurrentPage, page.PageCount, page.Total)
	return nil
}

// Photos lists one page of photos in a scope
func (r *Runner) Photos(ctx context.Context, cmd *cli.Command) error {
	scope, err := domain.ParseScope(cmd.String("scope"))
	if err != nil {
		return err
	}
	s, err := r.open()
	if err != nil {
		return err
	}
	page, err := awaitList[domain.Photo](ctx, r, s.Catalog.PhotosIn(photoOp(scope), scope, "", cmd.Int("page")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page)
	}
	for _, p := range page.Items {
		r.writePlainln("%8d  %s  %d★", p.ID, styles.Pad(styles.Truncate(p.Title, 50), 50), p.Stars)
	}
	r.writePageFooter(page.CurrentPage, page.PageCount, page.Total)
	return nil
}

func (r *Runner) printVideos(videos []domain.Video) {
	for i := range videos {
		r.printVideoRow(&videos[i])
	}
}

func (r *Runner) printVideoRow(v *domain.Video) {
	state := styles.DimStyle.Render(styles.RemoteChar)
	if v.DownloadState == domain.Downloaded {
		state = styles.SuccessStyle.Render(styles.DownloadedChar)
	}
	star := " "
	if v.Starred {
		star = styles.AccentStyle.Render(styles.StarChar)
	}
	r.writePlainln("%8d %s %s %s  %7s  %d★",
		v.ID, state, star, styles.Pad(styles.Truncate(v.Title, 50), 50), v.FormattedDuration(), v.Stars)
}

// Video shows one video
func (r *Runner) Video(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	v, err := r.fetchVideo(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(v)
	}
	r.printVideo(v)
	return nil
}

// User shows one user's profile
func (r *Runner) User(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	s, err := r.open()
	if err != nil {
		return err
	}
	user, err := awaitItem[domain.User](ctx, r, s.Catalog.User(id))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(user)
	}
	r.printUser(user)
	return nil
}

// Categories lists content categories
func (r *Runner) Categories(ctx context.Context, cmd *cli.Command) error {
	s, err := r.open()
	if err != nil {
		return err
	}
	page, err := awaitList[domain.Category](ctx, r, s.Catalog.Categories(cmd.Int("page")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page)
	}
	for _, c := range page.Items {
		r.writePlainln("%-24s %s  %s", c.Slug, styles.Pad(c.Name, 30), styles.DimStyle.Render(fmt.Sprintf("%d videos, %d photos", c.VideoCount, c.PhotoCount)))
	}
	r.writePageFooter(page.CurrentPage, page.PageCount, page.Total)
	return nil
}

// Channels lists curated channels
func (r *Runner) Channels(ctx context.Context, cmd *cli.Command) error {
	s, err := r.open()
	if err != nil {
		return err
	}
	page, err := awaitList[domain.Channel](ctx, r, s.Catalog.Channels(cmd.Int("page")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page)
	}
	for _, c := range page.Items {
		badge := ""
		if c.Featured {
			badge = styles.AccentStyle.Render(" featured")
		}
		r.writePlainln("%-24s %s%s", c.Slug, c.Title, badge)
	}
	r.writePageFooter(page.CurrentPage, page.PageCount, page.Total)
	return nil
}

// Comments lists comments on a video
func (r *Runner) Comments(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "video")
	if err != nil {
		return err
	}
	s, err := r.open()
	if err != nil {
		return err
	}
	page, err := awaitList[domain.Comment](ctx, r, s.Catalog.Comments(id, cmd.Int("page")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page)
	}
	for _, c := range page.Items {
		r.printComment(c)
	}
	r.writePageFooter(page.CurrentPage, page.PageCount, page.Total)
	return nil
}

func (r *Runner) printComment(c domain.Comment) {
	author := "unknown"
	if c.Author != nil {
		author = c.Author.Name()
	}
	r.writePlainln("%s %s", styles.AccentStyle.Render(author), styles.DimStyle.Render(c.CreatedAt.Format("2006-01-02")))
	r.writePlainln("  %s", c.Text)
}

// Comment posts a comment on a video
func (r *Runner) Comment(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID("comment", "video", cmd.Args().First())
	if err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(cmd.Args().Tail(), " "))
	if text == "" {
		return domain.ValidationError("comment", errors.New("comment text is required"))
	}
	s, err := r.open()
	if err != nil {
		return err
	}
	c, err := awaitItem[domain.Comment](ctx, r, s.Catalog.PostComment(id, text))
	if err != nil {
		return err
	}
	r.writePlainln("%s Posted", styles.SuccessStyle.Render("✓"))
	r.printComment(*c)
	return nil
}

// Notifications lists activity for the signed-in user
func (r *Runner) Notifications(ctx context.Context, cmd *cli.Command) error {
	s, err := r.open()
	if err != nil {
		return err
	}
	page, err := awaitList[domain.Notification](ctx, r, s.Catalog.Notifications(cmd.Int("page")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page)
	}
	for _, n := range page.Items {
		r.writePlainln("%s  %s", styles.DimStyle.Render(n.CreatedAt.Format("2006-01-02 15:04")), n.Text)
	}
	r.writePageFooter(page.CurrentPage, page.PageCount, page.Total)
	return nil
}

// Search queries the service, or the synchronized cache with --offline
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return domain.ValidationError("search", errors.New("query is required"))
	}
	s, err := r.open()
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("offline"):
		scope, err := domain.ParseScope(cmd.String("scope"))
		if err != nil {
			return err
		}
		cached, ok := s.Catalog.CachedVideos(scope)
		if !ok {
			return domain.NotFoundError("search", fmt.Errorf("no synchronized listing for %s; run lstar sync first", scope))
		}
		for _, v := range search.Local(query, cached) {
			r.printVideoRow(v)
		}
		return nil

	case cmd.Bool("users"):
		page, err := awaitList[domain.User](ctx, r, s.Catalog.SearchUsers(query, cmd.Int("page")))
		if err != nil {
			return err
		}
		for _, u := range page.Items {
			r.writePlainln("%8d  %s  %s", u.ID, styles.Pad(u.Name(), 30), styles.DimStyle.Render(u.Slug))
		}
		r.writePageFooter(page.CurrentPage, page.PageCount, page.Total)
		return nil

	case cmd.Bool("photos"):
		page, err := awaitList[domain.Photo](ctx, r, s.Catalog.SearchPhotos(query, cmd.Int("page")))
		if err != nil {
			return err
		}
		for _, p := range page.Items {
			r.writePlainln("%8d  %s", p.ID, p.Title)
		}
		r.writePageFooter(page.CurrentPage, page.PageCount, page.Total)
		return nil
	}

	page, err := awaitList[domain.Video](ctx, r, s.Catalog.SearchVideos(query, cmd.Int("page")))
	if err != nil {
		return err
	}
	videos := make([]*domain.Video, len(page.Items))
	for i := range page.Items {
		videos[i] = &page.Items[i]
	}
	for _, v := range search.Rank(query, videos) {
		r.printVideoRow(v)
	}
	r.writePageFooter(page.CurrentPage, page.PageCount, page.Total)
	return nil
}

// Sync stores a full listing for offline browsing and search
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	scope, err := domain.ParseScope(cmd.String("scope"))
	if err != nil {
		return err
	}
	s, err := r.open()
	if err != nil {
		return err
	}

	id := s.Catalog.SyncVideos(scope, cmd.Bool("force"))
	for {
		ev, err := r.await(ctx, func(ev domain.Event) bool {
			p, ok := ev.(domain.SyncProgress)
			return ok && p.RequestID == id
		})
		if err != nil {
			s.Catalog.Cancel(id)
			return err
		}
		p := ev.(domain.SyncProgress)
		switch {
		case p.Err != nil:
			r.writePlain("\n")
			return p.Err
		case p.Done:
			source := ""
			if p.FromCache {
				source = " (already up to date)"
			}
			r.writePlain("\r%s Synced %d videos in %s%s\n", styles.SuccessStyle.Render("✓"), p.Loaded, p.Scope, source)
			return nil
		default:
			r.writePlain("\rSyncing %s: %d/%d", p.Scope, p.Loaded, p.Total)
		}
	}
}

func catalogCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "videos",
			Usage:  "List videos",
			Flags:  []cli.Flag{scopeFlag(), pageFlag(), jsonFlag()},
			Action: r.Videos,
		},
		{
			Name:   "photos",
			Usage:  "List photos",
			Flags:  []cli.Flag{scopeFlag(), pageFlag(), jsonFlag()},
			Action: r.Photos,
		},
		{
			Name:      "video",
			Usage:     "Show a video",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags:     []cli.Flag{jsonFlag()},
			Action:    r.Video,
		},
		{
			Name:      "user",
			Usage:     "Show a user profile",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags:     []cli.Flag{jsonFlag()},
			Action:    r.User,
		},
		{
			Name:   "categories",
			Usage:  "List categories",
			Flags:  []cli.Flag{pageFlag(), jsonFlag()},
			Action: r.Categories,
		},
		{
			Name:   "channels",
			Usage:  "List channels",
			Flags:  []cli.Flag{pageFlag(), jsonFlag()},
			Action: r.Channels,
		},
		{
			Name:      "comments",
			Usage:     "List comments on a video",
			Arguments: []cli.Argument{&cli.StringArg{Name: "video"}},
			Flags:     []cli.Flag{pageFlag(), jsonFlag()},
			Action:    r.Comments,
		},
		{
			Name:      "comment",
			Usage:     "Comment on a video",
			ArgsUsage: "<video> <text...>",
			Action:    r.Comment,
		},
		{
			Name:   "notifications",
			Usage:  "List your notifications",
			Flags:  []cli.Flag{pageFlag(), jsonFlag()},
			Action: r.Notifications,
		},
		{
			Name:      "search",
			Usage:     "Search videos, photos or users",
			Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
			Flags: []cli.Flag{
				pageFlag(),
				scopeFlag(),
				&cli.BoolFlag{
					Name:  "offline",
					Usage: "Search the synchronized listing instead of the service",
				},
				&cli.BoolFlag{
					Name:  "photos",
					Usage: "Search photos",
				},
				&cli.BoolFlag{
					Name:  "users",
					Usage: "Search users",
				},
			},
			Action: r.Search,
		},
		{
			Name:  "sync",
			Usage: "Store a full video listing for offline use",
			Flags: []cli.Flag{
				scopeFlag(),
				&cli.BoolFlag{
					Name:  "force",
					Usage: "Ignore a recent synchronization",
				},
			},
			Action: r.Sync,
		},
	}
}
