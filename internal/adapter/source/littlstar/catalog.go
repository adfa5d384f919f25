package littlstar

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/littlstar/lstar/internal/domain"
)

// listParams builds the query string for a list request
func listParams(q domain.ListQuery) map[string]string {
	params := map[string]string{
		"page": strconv.Itoa(domain.NormalizePage(q.Page)),
	}
	if q.PerPage > 0 {
		params["per_page"] = strconv.Itoa(q.PerPage)
	}
	if q.Query != "" {
		params["q"] = q.Query
	}
	return params
}

// mediaPath returns the list endpoint for videos or photos in a scope
func mediaPath(kind string, scope domain.Scope) string {
	switch scope.Kind {
	case domain.ScopeFeatured:
		return "/" + kind + "/featured"
	case domain.ScopeCategory:
		return fmt.Sprintf("/categories/%s/%s", scope.Slug, kind)
	case domain.ScopeChannel:
		return fmt.Sprintf("/channels/%s/%s", scope.Slug, kind)
	case domain.ScopeUser:
		return fmt.Sprintf("/users/%d/%s", scope.UserID, kind)
	case domain.ScopeSearch:
		return "/search"
	default:
		return "/" + kind
	}
}

func listRequest(op, kind string, scope domain.Scope, q domain.ListQuery) request {
	params := listParams(q)
	if scope.Kind == domain.ScopeSearch {
		params["type"] = kind
	}
	return request{op: op, method: http.MethodGet, path: mediaPath(kind, scope), query: params}
}

// ListVideos returns one page of videos in the given scope
func (c *Client) ListVideos(ctx context.Context, scope domain.Scope, q domain.ListQuery) (domain.Listing[domain.Video], error) {
	items, p, err := call[[]VideoDTO](ctx, c, listRequest("list videos", "videos", scope, q))
	if err != nil {
		return domain.Listing[domain.Video]{}, err
	}
	return mapList(items, p, mapVideo), nil
}

// ListPhotos returns one page of photos in the given scope
func (c *Client) ListPhotos(ctx context.Context, scope domain.Scope, q domain.ListQuery) (domain.Listing[domain.Photo], error) {
	items, p, err := call[[]PhotoDTO](ctx, c, listRequest("list photos", "photos", scope, q))
	if err != nil {
		return domain.Listing[domain.Photo]{}, err
	}
	return mapList(items, p, mapPhoto), nil
}

// SearchUsers returns users matching q.Query
func (c *Client) SearchUsers(ctx context.Context, q domain.ListQuery) (domain.Listing[domain.User], error) {
	items, p, err := call[[]UserDTO](ctx, c, listRequest("search users", "users", domain.SearchScope(), q))
	if err != nil {
		return domain.Listing[domain.User]{}, err
	}
	return mapList(items, p, mapUser), nil
}

func (c *Client) ListCategories(ctx context.Context, q domain.ListQuery) (domain.Listing[domain.Category], error) {
	items, p, err := call[[]CategoryDTO](ctx, c, request{
		op: "list categories", method: http.MethodGet, path: "/categories", query: listParams(q),
	})
	if err != nil {
		return domain.Listing[domain.Category]{}, err
	}
	return mapList(items, p, mapCategory), nil
}

func (c *Client) ListChannels(ctx context.Context, q domain.ListQuery) (domain.Listing[domain.Channel], error) {
	items, p, err := call[[]ChannelDTO](ctx, c, request{
		op: "list channels", method: http.MethodGet, path: "/channels", query: listParams(q),
	})
	if err != nil {
		return domain.Listing[domain.Channel]{}, err
	}
	return mapList(items, p, mapChannel), nil
}

func (c *Client) ListComments(ctx context.Context, videoID uint64, q domain.ListQuery) (domain.Listing[domain.Comment], error) {
	items, p, err := call[[]CommentDTO](ctx, c, request{
		op: "list comments", method: http.MethodGet, path: fmt.Sprintf("/videos/%d/comments", videoID), query: listParams(q),
	})
	if err != nil {
		return domain.Listing[domain.Comment]{}, err
	}
	return mapList(items, p, mapComment), nil
}

func (c *Client) ListFollowers(ctx context.Context, userID uint64, q domain.ListQuery) (domain.Listing[domain.User], error) {
	return c.listUsers(ctx, "list followers", fmt.Sprintf("/users/%d/followers", userID), q)
}

func (c *Client) ListFollowing(ctx context.Context, userID uint64, q domain.ListQuery) (domain.Listing[domain.User], error) {
	return c.listUsers(ctx, "list following", fmt.Sprintf("/users/%d/following", userID), q)
}

func (c *Client) listUsers(ctx context.Context, op, path string, q domain.ListQuery) (domain.Listing[domain.User], error) {
	items, p, err := call[[]UserDTO](ctx, c, request{op: op, method: http.MethodGet, path: path, query: listParams(q)})
	if err != nil {
		return domain.Listing[domain.User]{}, err
	}
	return mapList(items, p, mapUser), nil
}

// ListNotifications returns the signed-in user's activity feed
func (c *Client) ListNotifications(ctx context.Context, token string, q domain.ListQuery) (domain.Listing[domain.Notification], error) {
	if token == "" {
		return domain.Listing[domain.Notification]{}, domain.AuthError("list notifications", domain.ErrNotLoggedIn)
	}
	items, p, err := call[[]NotificationDTO](ctx, c, request{
		op: "list notifications", method: http.MethodGet, path: "/notifications", token: token, query: listParams(q),
	})
	if err != nil {
		return domain.Listing[domain.Notification]{}, err
	}
	return mapList(items, p, mapNotification), nil
}

// GetVideo returns a single video by ID
func (c *Client) GetVideo(ctx context.Context, id uint64) (*domain.Video, error) {
	dto, _, err := call[VideoDTO](ctx, c, request{op: "get video", method: http.MethodGet, path: fmt.Sprintf("/videos/%d", id)})
	if err != nil {
		return nil, err
	}
	return mapVideo(&dto), nil
}

// GetPhoto returns a single photo by ID
func (c *Client) GetPhoto(ctx context.Context, id uint64) (*domain.Photo, error) {
	dto, _, err := call[PhotoDTO](ctx, c, request{op: "get photo", method: http.MethodGet, path: fmt.Sprintf("/photos/%d", id)})
	if err != nil {
		return nil, err
	}
	return mapPhoto(&dto), nil
}

// GetUser returns a user profile
func (c *Client) GetUser(ctx context.Context, id uint64) (*domain.User, error) {
	dto, _, err := call[UserDTO](ctx, c, request{op: "get user", method: http.MethodGet, path: fmt.Sprintf("/users/%d", id)})
	if err != nil {
		return nil, err
	}
	return mapUser(&dto), nil
}

func (c *Client) GetCategory(ctx context.Context, slug string) (*domain.Category, error) {
	dto, _, err := call[CategoryDTO](ctx, c, request{op: "get category", method: http.MethodGet, path: "/categories/" + slug})
	if err != nil {
		return nil, err
	}
	return mapCategory(&dto), nil
}

func (c *Client) GetChannel(ctx context.Context, slug string) (*domain.Channel, error) {
	dto, _, err := call[ChannelDTO](ctx, c, request{op: "get channel", method: http.MethodGet, path: "/channels/" + slug})
	if err != nil {
		return nil, err
	}
	return mapChannel(&dto), nil
}

// PostComment adds a comment to a video as the signed-in user
func (c *Client) PostComment(ctx context.Context, token string, videoID uint64, text string) (*domain.Comment, error) {
	if token == "" {
		return nil, domain.AuthError("post comment", domain.ErrNotLoggedIn)
	}
	dto, _, err := call[CommentDTO](ctx, c, request{
		op:     "post comment",
		method: http.MethodPost,
		path:   fmt.Sprintf("/videos/%d/comments", videoID),
		token:  token,
		body:   commentRequest{Body: text},
	})
	if err != nil {
		return nil, err
	}
	return mapComment(&dto), nil
}
