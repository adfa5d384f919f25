package main

import (
	"context"
	"fmt"

	"github.com/littlstar/lstar/internal/adapter"
	"github.com/littlstar/lstar/internal/adapter/source/littlstar"
	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/tui/styles"
	"github.com/urfave/cli/v3"
)

// Login prompts for credentials and stores the resulting token
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	s, err := r.open()
	if err != nil {
		return err
	}

	var id string
	if token := cmd.String("token"); token != "" {
		id = s.Session.LoginExternal(token)
	} else {
		login, password, err := littlstar.NewPrompter().Credentials()
		if err != nil {
			return err
		}
		id = s.Session.Login(login, password)
	}
	return r.finishLogin(ctx, id)
}

// Register creates an account and signs in with it
func (r *Runner) Register(ctx context.Context, cmd *cli.Command) error {
	s, err := r.open()
	if err != nil {
		return err
	}
	reg, err := littlstar.NewPrompter().Registration()
	if err != nil {
		return err
	}
	return r.finishLogin(ctx, s.Session.Register(reg))
}

func (r *Runner) finishLogin(ctx context.Context, id string) error {
	ev, err := r.await(ctx, func(ev domain.Event) bool {
		res, ok := ev.(domain.LoginFinished)
		return ok && res.RequestID == id
	})
	if err != nil {
		return err
	}
	res := ev.(domain.LoginFinished)
	if res.Err != nil {
		return res.Err
	}

	token := r.sdk.Session.Session().Token()
	if err := adapter.SaveToken(token, res.User.Slug); err != nil {
		return err
	}
	r.writePlainln("%s Signed in as %s", styles.SuccessStyle.Render("✓"), res.User.Name())
	return nil
}

// Logout forgets the stored token
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := adapter.ClearAuth(); err != nil {
		return err
	}
	if r.sdk != nil {
		r.sdk.Session.Logout()
	}
	r.writePlainln("Signed out")
	return nil
}

// Whoami shows the signed-in account
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	if !r.config.IsAuthenticated() {
		return domain.AuthError("whoami", domain.ErrNotLoggedIn)
	}
	s, err := r.open()
	if err != nil {
		return err
	}
	user, err := awaitItem[domain.User](ctx, r, s.Catalog.Me())
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(user)
	}
	r.printUser(user)
	return nil
}

func (r *Runner) printUser(u *domain.User) {
	r.writePlainln("%s (%s)", styles.TitleStyle.Render(u.Name()), u.Slug)
	if u.Email != "" {
		r.writePlainln("  Email:     %s", u.Email)
	}
	if u.Bio != "" {
		r.writePlainln("  Bio:       %s", u.Bio)
	}
	r.writePlainln("  Videos:    %d", u.VideosCount)
	r.writePlainln("  Photos:    %d", u.PhotosCount)
	r.writePlainln("  Followers: %d", u.FollowersCount)
	r.writePlainln("  Following: %d", u.FollowingCount)
	if u.Following {
		r.writePlainln("  %s", styles.AccentStyle.Render("You follow this user"))
	}
}

func authCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "login",
			Usage: "Sign in to Littlstar",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "token",
					Usage: "Adopt an existing API token instead of prompting",
				},
			},
			Action: r.Login,
		},
		{
			Name:   "register",
			Usage:  "Create a Littlstar account",
			Action: r.Register,
		},
		{
			Name:   "logout",
			Usage:  "Forget the stored session",
			Action: r.Logout,
		},
		{
			Name:   "whoami",
			Usage:  "Show the signed-in account",
			Flags:  []cli.Flag{jsonFlag()},
			Action: r.Whoami,
		},
	}
}

func (r *Runner) printVideo(v *domain.Video) {
	r.writePlainln("%s", styles.TitleStyle.Render(v.Title))
	r.writePlainln("  ID:        %d", v.ID)
	if v.Owner != nil {
		r.writePlainln("  By:        %s", v.Owner.Name())
	}
	r.writePlainln("  Duration:  %s", v.FormattedDuration())
	r.writePlainln("  Views:     %d", v.Views)
	r.writePlainln("  Stars:     %d%s", v.Stars, marker(v.Starred, " (starred)"))
	r.writePlainln("  Downvotes: %d%s", v.Downvotes, marker(v.Downvoted, " (downvoted)"))
	r.writePlainln("  Offline:   %s", downloadLabel(v))
	if v.Description != "" {
		r.writePlainln("\n%s", v.Description)
	}
}

func marker(on bool, s string) string {
	if on {
		return s
	}
	return ""
}

func downloadLabel(v *domain.Video) string {
	switch {
	case v.DownloadState == domain.Downloaded:
		return fmt.Sprintf("%s %s", styles.SuccessStyle.Render(v.DownloadState.String()), v.LocalPath)
	case !v.Download:
		return styles.DimStyle.Render("not permitted")
	default:
		return v.DownloadState.String()
	}
}
