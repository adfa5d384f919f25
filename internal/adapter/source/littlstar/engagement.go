package littlstar

import (
	"context"
	"fmt"
	"net/http"

	"github.com/littlstar/lstar/internal/domain"
)

// toggleMethod maps a desired flag to POST (set) or DELETE (clear)
func toggleMethod(on bool) string {
	if on {
		return http.MethodPost
	}
	return http.MethodDelete
}

func (c *Client) SetVideoStar(ctx context.Context, token string, id uint64, on bool) (*domain.Video, error) {
	return c.setVideoFlag(ctx, "star video", token, fmt.Sprintf("/videos/%d/star", id), on)
}

func (c *Client) SetVideoDownvote(ctx context.Context, token string, id uint64, on bool) (*domain.Video, error) {
	return c.setVideoFlag(ctx, "downvote video", token, fmt.Sprintf("/videos/%d/downvote", id), on)
}

func (c *Client) setVideoFlag(ctx context.Context, op, token, path string, on bool) (*domain.Video, error) {
	if token == "" {
		return nil, domain.AuthError(op, domain.ErrNotLoggedIn)
	}
	dto, _, err := call[VideoDTO](ctx, c, request{op: op, method: toggleMethod(on), path: path, token: token})
	if err != nil {
		return nil, err
	}
	return mapVideo(&dto), nil
}

func (c *Client) SetPhotoStar(ctx context.Context, token string, id uint64, on bool) (*domain.Photo, error) {
	return c.setPhotoFlag(ctx, "star photo", token, fmt.Sprintf("/photos/%d/star", id), on)
}

func (c *Client) SetPhotoDownvote(ctx context.Context, token string, id uint64, on bool) (*domain.Photo, error) {
	return c.setPhotoFlag(ctx, "downvote photo", token, fmt.Sprintf("/photos/%d/downvote", id), on)
}

func (c *Client) setPhotoFlag(ctx context.Context, op, token, path string, on bool) (*domain.Photo, error) {
	if token == "" {
		return nil, domain.AuthError(op, domain.ErrNotLoggedIn)
	}
	dto, _, err := call[PhotoDTO](ctx, c, request{op: op, method: toggleMethod(on), path: path, token: token})
	if err != nil {
		return nil, err
	}
	return mapPhoto(&dto), nil
}

// SetFollow follows or unfollows a user and returns the updated profile
func (c *Client) SetFollow(ctx context.Context, token string, userID uint64, on bool) (*domain.User, error) {
	if token == "" {
		return nil, domain.AuthError("follow user", domain.ErrNotLoggedIn)
	}
	dto, _, err := call[UserDTO](ctx, c, request{
		op:     "follow user",
		method: toggleMethod(on),
		path:   fmt.Sprintf("/users/%d/follow", userID),
		token:  token,
	})
	if err != nil {
		return nil, err
	}
	return mapUser(&dto), nil
}
