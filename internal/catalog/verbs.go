package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/littlstar/lstar/internal/domain"
)

// VideosIn lists videos in any scope. Search scopes take their text from query.
func (d *Dispatcher) VideosIn(op domain.Op, scope domain.Scope, query string, page int) string {
	return list(d, op, page, func(ctx context.Context, q domain.ListQuery) (domain.Listing[domain.Video], error) {
		q.Query = query
		return d.client.ListVideos(ctx, scope, q)
	}, func(p *domain.Page[domain.Video]) {
		d.annotatePage(p)
		d.cacheVideoPage(scope, query, p)
	})
}

// PhotosIn lists photos in any scope
func (d *Dispatcher) PhotosIn(op domain.Op, scope domain.Scope, query string, page int) string {
	return list(d, op, page, func(ctx context.Context, q domain.ListQuery) (domain.Listing[domain.Photo], error) {
		q.Query = query
		return d.client.ListPhotos(ctx, scope, q)
	}, func(p *domain.Page[domain.Photo]) {
		d.cachePhotoPage(scope, query, p)
	})
}

func (d *Dispatcher) Videos(page int) string {
	return d.VideosIn(domain.OpVideos, domain.AllScope(), "", page)
}

// FeaturedVideos lists the discovery feed
func (d *Dispatcher) FeaturedVideos(page int) string {
	return d.VideosIn(domain.OpFeaturedVideos, domain.FeaturedScope(), "", page)
}

func (d *Dispatcher) Photos(page int) string {
	return d.PhotosIn(domain.OpPhotos, domain.AllScope(), "", page)
}

func (d *Dispatcher) FeaturedPhotos(page int) string {
	return d.PhotosIn(domain.OpFeaturedPhotos, domain.FeaturedScope(), "", page)
}

func (d *Dispatcher) SearchVideos(query string, page int) string {
	return d.VideosIn(domain.OpSearchVideos, domain.SearchScope(), strings.TrimSpace(query), page)
}

func (d *Dispatcher) SearchPhotos(query string, page int) string {
	return d.PhotosIn(domain.OpSearchPhotos, domain.SearchScope(), strings.TrimSpace(query), page)
}

func (d *Dispatcher) SearchUsers(query string, page int) string {
	query = strings.TrimSpace(query)
	return list(d, domain.OpSearchUsers, page, func(ctx context.Context, q domain.ListQuery) (domain.Listing[domain.User], error) {
		q.Query = query
		return d.client.SearchUsers(ctx, q)
	}, nil)
}

func (d *Dispatcher) CategoryVideos(slug string, page int) string {
	return d.VideosIn(domain.OpCategoryVideos, domain.CategoryScope(slug), "", page)
}

func (d *Dispatcher) CategoryPhotos(slug string, page int) string {
	return d.PhotosIn(domain.OpCategoryPhotos, domain.CategoryScope(slug), "", page)
}

func (d *Dispatcher) ChannelVideos(slug string, page int) string {
	return d.VideosIn(domain.OpChannelVideos, domain.ChannelScope(slug), "", page)
}

func (d *Dispatcher) ChannelPhotos(slug string, page int) string {
	return d.PhotosIn(domain.OpChannelPhotos, domain.ChannelScope(slug), "", page)
}

func (d *Dispatcher) UserVideos(userID uint64, page int) string {
	return d.VideosIn(domain.OpUserVideos, domain.UserScope(userID), "", page)
}

func (d *Dispatcher) UserPhotos(userID uint64, page int) string {
	return d.PhotosIn(domain.OpUserPhotos, domain.UserScope(userID), "", page)
}

func (d *Dispatcher) Categories(page int) string {
	return list(d, domain.OpCategories, page, d.client.ListCategories, nil)
}

func (d *Dispatcher) Channels(page int) string {
	return list(d, domain.OpChannels, page, d.client.ListChannels, nil)
}

func (d *Dispatcher) Comments(videoID uint64, page int) string {
	return list(d, domain.OpComments, page, func(ctx context.Context, q domain.ListQuery) (domain.Listing[domain.Comment], error) {
		return d.client.ListComments(ctx, videoID, q)
	}, nil)
}

func (d *Dispatcher) Followers(userID uint64, page int) string {
	return list(d, domain.OpFollowers, page, func(ctx context.Context, q domain.ListQuery) (domain.Listing[domain.User], error) {
		return d.client.ListFollowers(ctx, userID, q)
	}, nil)
}

func (d *Dispatcher) Following(userID uint64, page int) string {
	return list(d, domain.OpFollowing, page, func(ctx context.Context, q domain.ListQuery) (domain.Listing[domain.User], error) {
		return d.client.ListFollowing(ctx, userID, q)
	}, nil)
}

// Notifications lists the signed-in user's activity
func (d *Dispatcher) Notifications(page int) string {
	token := d.token()
	return list(d, domain.OpNotifications, page, func(ctx context.Context, q domain.ListQuery) (domain.Listing[domain.Notification], error) {
		if token == "" {
			return domain.Listing[domain.Notification]{}, domain.AuthError("notifications", domain.ErrNotLoggedIn)
		}
		return d.client.ListNotifications(ctx, token, q)
	}, nil)
}

func (d *Dispatcher) Video(id uint64) string {
	return d.video(domain.OpVideo, id)
}

// RefreshVideo re-fetches a video to pick up current counters and flags
func (d *Dispatcher) RefreshVideo(v *domain.Video) string {
	return d.video(domain.OpRefreshVideo, v.ID)
}

func (d *Dispatcher) video(op domain.Op, id uint64) string {
	return item(d, op, func(ctx context.Context) (*domain.Video, error) {
		return d.client.GetVideo(ctx, id)
	}, d.annotate)
}

func (d *Dispatcher) Photo(id uint64) string {
	return item(d, domain.OpPhoto, func(ctx context.Context) (*domain.Photo, error) {
		return d.client.GetPhoto(ctx, id)
	}, nil)
}

func (d *Dispatcher) User(id uint64) string {
	return item(d, domain.OpUser, func(ctx context.Context) (*domain.User, error) {
		return d.client.GetUser(ctx, id)
	}, nil)
}

// Me fetches the signed-in user's profile
func (d *Dispatcher) Me() string {
	token := d.token()
	return item(d, domain.OpMe, func(ctx context.Context) (*domain.User, error) {
		if token == "" {
			return nil, domain.AuthError("me", domain.ErrNotLoggedIn)
		}
		return d.client.Me(ctx, token)
	}, nil)
}

func (d *Dispatcher) Category(slug string) string {
	return item(d, domain.OpCategory, func(ctx context.Context) (*domain.Category, error) {
		return d.client.GetCategory(ctx, slug)
	}, nil)
}

func (d *Dispatcher) Channel(slug string) string {
	return item(d, domain.OpChannel, func(ctx context.Context) (*domain.Channel, error) {
		return d.client.GetChannel(ctx, slug)
	}, nil)
}

// PostComment comments on a video as the signed-in user
func (d *Dispatcher) PostComment(videoID uint64, text string) string {
	token := d.token()
	text = strings.TrimSpace(text)
	return item(d, domain.OpPostComment, func(ctx context.Context) (*domain.Comment, error) {
		if token == "" {
			return nil, domain.AuthError("post comment", domain.ErrNotLoggedIn)
		}
		if text == "" {
			return nil, domain.ValidationError("post comment", errors.New("comment text is required"))
		}
		return d.client.PostComment(ctx, token, videoID, text)
	}, nil)
}

func (d *Dispatcher) annotate(v *domain.Video) {
	if d.annotator != nil {
		d.annotator.Annotate(v)
	}
}

func (d *Dispatcher) annotatePage(p *domain.Page[domain.Video]) {
	for i := range p.Items {
		d.annotate(&p.Items[i])
	}
}

// pageKey addresses one cached page, e.g. "category:travel#2"
func pageKey(scope domain.Scope, query string, page int) string {
	key := scope.String()
	if query != "" {
		key += "?" + strings.ToLower(query)
	}
	return key + "#" + strconv.Itoa(page)
}

func (d *Dispatcher) cacheVideoPage(scope domain.Scope, query string, p *domain.Page[domain.Video]) {
	if d.cache == nil || p.PageCount == 0 {
		return
	}
	videos := make([]*domain.Video, len(p.Items))
	for i := range p.Items {
		videos[i] = &p.Items[i]
	}
	if err := d.cache.SaveVideos(pageKey(scope, query, p.CurrentPage), videos, time.Now()); err != nil {
		d.logger.Warn("failed to cache page", "scope", scope.String(), "page", p.CurrentPage, "error", err)
	}
}

func (d *Dispatcher) cachePhotoPage(scope domain.Scope, query string, p *domain.Page[domain.Photo]) {
	if d.cache == nil || p.PageCount == 0 {
		return
	}
	photos := make([]*domain.Photo, len(p.Items))
	for i := range p.Items {
		photos[i] = &p.Items[i]
	}
	if err := d.cache.SavePhotos(pageKey(scope, query, p.CurrentPage), photos, time.Now()); err != nil {
		d.logger.Warn("failed to cache page", "scope", scope.String(), "page", p.CurrentPage, "error", err)
	}
}
