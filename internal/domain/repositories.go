package domain

import (
	"context"
	"io"
)

// ListQuery selects one page of a catalog listing
type ListQuery struct {
	Page    int
	PerPage int
	Query   string // Search text, empty for plain listings
}

// CatalogClient provides read access to the media service catalog.
// All list calls return the decoded payload; pagination is applied by the caller.
type CatalogClient interface {
	ListVideos(ctx context.Context, scope Scope, q ListQuery) (Listing[Video], error)
	ListPhotos(ctx context.Context, scope Scope, q ListQuery) (Listing[Photo], error)
	SearchUsers(ctx context.Context, q ListQuery) (Listing[User], error)
	ListCategories(ctx context.Context, q ListQuery) (Listing[Category], error)
	ListChannels(ctx context.Context, q ListQuery) (Listing[Channel], error)
	ListComments(ctx context.Context, videoID uint64, q ListQuery) (Listing[Comment], error)
	ListFollowers(ctx context.Context, userID uint64, q ListQuery) (Listing[User], error)
	ListFollowing(ctx context.Context, userID uint64, q ListQuery) (Listing[User], error)
	ListNotifications(ctx context.Context, token string, q ListQuery) (Listing[Notification], error)

	GetVideo(ctx context.Context, id uint64) (*Video, error)
	GetPhoto(ctx context.Context, id uint64) (*Photo, error)
	GetUser(ctx context.Context, id uint64) (*User, error)
	GetCategory(ctx context.Context, slug string) (*Category, error)
	GetChannel(ctx context.Context, slug string) (*Channel, error)
	PostComment(ctx context.Context, token string, videoID uint64, text string) (*Comment, error)
}

// AuthClient provides the account endpoints
type AuthClient interface {
	Login(ctx context.Context, login, password string) (*AuthResult, error)
	Register(ctx context.Context, req Registration) (*AuthResult, error)
	Me(ctx context.Context, token string) (*User, error)
}

// EngagementClient sets star, downvote and follow flags on the service.
// Each call is idempotent and returns the authoritative item snapshot.
type EngagementClient interface {
	SetVideoStar(ctx context.Context, token string, id uint64, on bool) (*Video, error)
	SetVideoDownvote(ctx context.Context, token string, id uint64, on bool) (*Video, error)
	SetPhotoStar(ctx context.Context, token string, id uint64, on bool) (*Photo, error)
	SetPhotoDownvote(ctx context.Context, token string, id uint64, on bool) (*Photo, error)
	SetFollow(ctx context.Context, token string, userID uint64, on bool) (*User, error)
}

// Streamer opens the byte stream of a remote media file.
// total is -1 when the length is unknown. The caller closes the reader.
type Streamer interface {
	Stream(ctx context.Context, url string) (body io.ReadCloser, total int64, err error)
}

// TokenSource exposes the current bearer token, empty when signed out
type TokenSource interface {
	Token() string
}

// AuthResult contains the result of a successful authentication
type AuthResult struct {
	Token string
	User  *User
}

// Registration holds the fields needed to create an account
type Registration struct {
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
}
