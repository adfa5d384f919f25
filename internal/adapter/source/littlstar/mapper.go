package littlstar

import (
	"time"

	"github.com/littlstar/lstar/internal/domain"
)

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func mapUser(d *UserDTO) *domain.User {
	if d == nil {
		return nil
	}
	return &domain.User{
		ID:             d.ID,
		Slug:           d.Slug,
		DisplayName:    d.DisplayName,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Bio:            d.Bio,
		AvatarURL:      d.AvatarURL,
		Email:          d.Email,
		VideosCount:    d.VideosCount,
		PhotosCount:    d.PhotosCount,
		FollowersCount: d.FollowersCount,
		FollowingCount: d.FollowingCount,
		Following:      d.Following,
		CreatedAt:      parseTime(d.CreatedAt),
	}
}

func mapVideo(d *VideoDTO) *domain.Video {
	return &domain.Video{
		ID:            d.ID,
		Slug:          d.Slug,
		Title:         d.Title,
		Description:   d.Description,
		BannerURL:     d.BannerURL,
		ThumbURL:      d.ThumbURL,
		SmallThumbURL: d.SmallThumbURL,
		StreamURL:     d.StreamURL,
		DownloadURL:   d.DownloadURL,
		Duration:      time.Duration(d.Duration * float64(time.Second)),
		Download:      d.Download,
		Views:         d.Views,
		Stars:         d.Stars,
		Downvotes:     d.Downvotes,
		Starred:       d.Starred,
		Downvoted:     d.Downvoted,
		Owner:         mapUser(d.User),
		CreatedAt:     parseTime(d.CreatedAt),
	}
}

func mapPhoto(d *PhotoDTO) *domain.Photo {
	return &domain.Photo{
		ID:            d.ID,
		Slug:          d.Slug,
		Title:         d.Title,
		Description:   d.Description,
		ImageURL:      d.ImageURL,
		ThumbURL:      d.ThumbURL,
		SmallThumbURL: d.SmallThumbURL,
		SBS3D:         d.SBS3D,
		OU3D:          d.OU3D,
		FOVDefault:    d.FOVDefault,
		FOVMin:        d.FOVMin,
		FOVMax:        d.FOVMax,
		Yaw:           d.Yaw,
		Views:         d.Views,
		Stars:         d.Stars,
		Downvotes:     d.Downvotes,
		Starred:       d.Starred,
		Downvoted:     d.Downvoted,
		Owner:         mapUser(d.User),
		CreatedAt:     parseTime(d.CreatedAt),
	}
}

func mapCategory(d *CategoryDTO) *domain.Category {
	return &domain.Category{
		ID:         d.ID,
		Slug:       d.Slug,
		Name:       d.Name,
		VideoCount: d.VideoCount,
		PhotoCount: d.PhotoCount,
		ThumbURL:   d.ThumbURL,
	}
}

func mapChannel(d *ChannelDTO) *domain.Channel {
	return &domain.Channel{
		ID:         d.ID,
		Slug:       d.Slug,
		Title:      d.Title,
		Summary:    d.Summary,
		VideoCount: d.VideoCount,
		PhotoCount: d.PhotoCount,
		Sponsored:  d.Sponsored,
		Featured:   d.Featured,
		ThumbURL:   d.ThumbURL,
		BannerURL:  d.BannerURL,
		Owner:      mapUser(d.User),
	}
}

func mapComment(d *CommentDTO) *domain.Comment {
	return &domain.Comment{
		ID:        d.ID,
		Text:      d.Body,
		CreatedAt: parseTime(d.CreatedAt),
		Author:    mapUser(d.User),
	}
}

func mapNotification(d *NotificationDTO) *domain.Notification {
	return &domain.Notification{
		ID:        d.ID,
		Action:    d.Action,
		Text:      d.Text,
		Actor:     mapUser(d.Actor),
		CreatedAt: parseTime(d.CreatedAt),
		UpdatedAt: parseTime(d.UpdatedAt),
	}
}

// mapList converts a decoded list payload into a domain listing.
// Lists are returned by value; items stay pointers only where the domain uses them.
func mapList[D any, T any](items []D, p *PaginationDTO, mapFn func(*D) *T) domain.Listing[T] {
	out := make([]T, 0, len(items))
	for i := range items {
		out = append(out, *mapFn(&items[i]))
	}
	l := domain.Listing[T]{Items: out, Total: len(out)}
	if p != nil {
		l.Total = p.TotalCount
		l.PerPage = p.PerPage
	}
	return l
}
