package domain

import (
	"fmt"
	"time"
)

// MediaType distinguishes catalog content types
type MediaType int

const (
	MediaTypeVideo MediaType = iota
	MediaTypePhoto
)

func (t MediaType) String() string {
	if t == MediaTypePhoto {
		return "photo"
	}
	return "video"
}

// DownloadState tracks the offline availability of a video
type DownloadState int

const (
	NotDownloaded DownloadState = iota
	Downloading
	Downloaded
)

func (s DownloadState) String() string {
	switch s {
	case Downloading:
		return "downloading"
	case Downloaded:
		return "downloaded"
	default:
		return "not downloaded"
	}
}

// User is a Littlstar account
type User struct {
	ID             uint64
	Slug           string
	DisplayName    string
	FirstName      string
	LastName       string
	Bio            string
	AvatarURL      string
	Email          string // Only present for the authenticated user
	VideosCount    int
	PhotosCount    int
	FollowersCount int
	FollowingCount int
	Following      bool // Whether the current user follows this user
	CreatedAt      time.Time
}

// Name returns the best display name available
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.FirstName != "" || u.LastName != "" {
		return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
	}
	return u.Slug
}

// Clone returns an independent copy
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Video is a 360° video in the catalog
type Video struct {
	ID            uint64
	Slug          string
	Title         string
	Description   string
	BannerURL     string
	ThumbURL      string
	SmallThumbURL string
	StreamURL     string // Remote HLS/MP4 URL
	DownloadURL   string // Remote file used for offline copies
	Duration      time.Duration
	Download      bool // Whether offline download is permitted
	Views         int
	Stars         int
	Downvotes     int
	Starred       bool
	Downvoted     bool
	Owner         *User
	CreatedAt     time.Time

	// Local state, never sent by the server
	DownloadState DownloadState
	LocalPath     string
}

// Clone returns a copy that shares nothing mutable with v
func (v *Video) Clone() *Video {
	if v == nil {
		return nil
	}
	c := *v
	c.Owner = v.Owner.Clone()
	return &c
}

// FormattedDuration returns the duration in a human-readable format
func (v Video) FormattedDuration() string {
	h := int(v.Duration.Hours())
	mins := int(v.Duration.Minutes()) % 60
	secs := int(v.Duration.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// SourceURL returns the URL a player should open, preferring the offline copy
func (v Video) SourceURL() string {
	if v.DownloadState == Downloaded && v.LocalPath != "" {
		return "file://" + v.LocalPath
	}
	return v.StreamURL
}

// Photo is a 360° photo in the catalog
type Photo struct {
	ID            uint64
	Slug          string
	Title         string
	Description   string
	ImageURL      string
	ThumbURL      string
	SmallThumbURL string
	SBS3D         bool // Side-by-side stereo
	OU3D          bool // Over-under stereo
	FOVDefault    float64
	FOVMin        float64
	FOVMax        float64
	Yaw           float64
	Views         int
	Stars         int
	Downvotes     int
	Starred       bool
	Downvoted     bool
	Owner         *User
	CreatedAt     time.Time
}

// Clone returns a copy that shares nothing mutable with p
func (p *Photo) Clone() *Photo {
	if p == nil {
		return nil
	}
	c := *p
	c.Owner = p.Owner.Clone()
	return &c
}

// Category groups catalog content by topic
type Category struct {
	ID         uint64
	Slug       string
	Name       string
	VideoCount int
	PhotoCount int
	ThumbURL   string
}

// Channel is a curated collection owned by a user
type Channel struct {
	ID         uint64
	Slug       string
	Title      string
	Summary    string
	VideoCount int
	PhotoCount int
	Sponsored  bool
	Featured   bool
	ThumbURL   string
	BannerURL  string
	Owner      *User
}

// Comment is a user comment on a video
type Comment struct {
	ID        uint64
	Text      string
	CreatedAt time.Time
	Author    *User
}

// Notification is an activity entry for the signed-in user
type Notification struct {
	ID        uint64
	Action    string // e.g. "follow", "star", "comment"
	Text      string
	Actor     *User
	CreatedAt time.Time
	UpdatedAt time.Time
}
