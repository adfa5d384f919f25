package littlstar

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/littlstar/lstar/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL + "/api/v1/", Timeout: 5 * time.Second, Retries: 2}, nil)
}

const videoListBody = `{
	"meta": {"status": 200, "pagination": {"page": 2, "per_page": 2, "total_count": 5, "total_pages": 3}},
	"data": [
		{"id": 7, "title": "Iceland", "stream_url": "https://cdn/7.mp4", "download": true, "stars": 3, "starred": true,
		 "duration": 90.5, "user": {"id": 1, "display_name": "Ada"}, "created_at": "2015-04-13T10:00:00Z"},
		{"id": 8, "title": "Moon", "stream_url": "https://cdn/8.mp4"}
	]
}`

func TestClient_ListVideos(t *testing.T) {
	t.Run("decodes list and pagination", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/videos", r.URL.Path)
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "2", r.URL.Query().Get("per_page"))
			w.Write([]byte(videoListBody))
		})

		l, err := c.ListVideos(context.Background(), domain.AllScope(), domain.ListQuery{Page: 2, PerPage: 2})
		require.NoError(t, err)
		require.Len(t, l.Items, 2)
		assert.Equal(t, 5, l.Total)
		assert.Equal(t, 2, l.PerPage)

		v := l.Items[0]
		assert.Equal(t, uint64(7), v.ID)
		assert.True(t, v.Download)
		assert.True(t, v.Starred)
		assert.Equal(t, 90500*time.Millisecond, v.Duration)
		require.NotNil(t, v.Owner)
		assert.Equal(t, "Ada", v.Owner.Name())
		assert.Equal(t, 2015, v.CreatedAt.Year())
	})

	t.Run("scoped paths", func(t *testing.T) {
		cases := []struct {
			scope domain.Scope
			path  string
			query string
		}{
			{domain.FeaturedScope(), "/api/v1/videos/featured", ""},
			{domain.CategoryScope("travel"), "/api/v1/categories/travel/videos", ""},
			{domain.ChannelScope("nasa"), "/api/v1/channels/nasa/videos", ""},
			{domain.UserScope(9), "/api/v1/users/9/videos", ""},
			{domain.SearchScope(), "/api/v1/search", "videos"},
		}
		for _, tc := range cases {
			t.Run(tc.scope.String(), func(t *testing.T) {
				c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, tc.path, r.URL.Path)
					if tc.query != "" {
						assert.Equal(t, tc.query, r.URL.Query().Get("type"))
						assert.Equal(t, "moon", r.URL.Query().Get("q"))
					}
					w.Write([]byte(`{"meta":{"status":200},"data":[]}`))
				})
				l, err := c.ListVideos(context.Background(), tc.scope, domain.ListQuery{Page: 1, Query: "moon"})
				require.NoError(t, err)
				assert.Empty(t, l.Items)
				assert.Equal(t, 0, l.Total)
			})
		}
	})
}

func TestClient_Errors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   domain.Kind
		is     error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad token"}`, domain.KindAuthentication, domain.ErrAuthFailed},
		{"not found", http.StatusNotFound, `{}`, domain.KindNotFound, domain.ErrItemNotFound},
		{"validation", http.StatusUnprocessableEntity, `{"errors":["Title is too long"]}`, domain.KindValidation, nil},
		{"server error", http.StatusBadGateway, ``, domain.KindNetwork, domain.ErrServerOffline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, err := c.GetVideo(context.Background(), 1)
			require.Error(t, err)
			assert.Equal(t, tc.kind, domain.KindOf(err))
			if tc.is != nil {
				assert.True(t, errors.Is(err, tc.is))
			}
		})
	}

	t.Run("validation message is readable", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"errors":{"username":["has already been taken"]}}`))
		})
		_, err := c.Register(context.Background(), domain.Registration{Username: "ada"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "username has already been taken")
	})

	t.Run("malformed body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": [`))
		})
		_, err := c.GetVideo(context.Background(), 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
		assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
	})

	t.Run("retries idempotent requests on 5xx", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"data":{"id":3,"title":"ok"}}`))
		})
		v, err := c.GetVideo(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "ok", v.Title)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("does not retry posts", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := c.PostComment(context.Background(), "tok", 3, "hi")
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_Auth(t *testing.T) {
	t.Run("login returns token and user", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/login", r.URL.Path)
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"login":"ada","password":"pw"}`, string(body))
			w.Write([]byte(`{"data":{"id":1,"slug":"ada","api_key":"tok-1"}}`))
		})
		res, err := c.Login(context.Background(), "ada", "pw")
		require.NoError(t, err)
		assert.Equal(t, "tok-1", res.Token)
		assert.Equal(t, "ada", res.User.Slug)
	})

	t.Run("bad credentials are an authentication error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"errors":["Invalid login"]}`))
		})
		_, err := c.Login(context.Background(), "ada", "nope")
		assert.Equal(t, domain.KindAuthentication, domain.KindOf(err))
	})

	t.Run("me sends bearer token", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			w.Write([]byte(`{"data":{"id":1,"slug":"ada"}}`))
		})
		u, err := c.Me(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), u.ID)
	})
}

func TestClient_Engagement(t *testing.T) {
	t.Run("star uses post and unstar uses delete", func(t *testing.T) {
		var mu sync.Mutex
		var methods []string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			methods = append(methods, r.Method)
			mu.Unlock()
			assert.Equal(t, "/api/v1/videos/5/star", r.URL.Path)
			starred := r.Method == http.MethodPost
			if starred {
				w.Write([]byte(`{"data":{"id":5,"stars":1,"starred":true}}`))
			} else {
				w.Write([]byte(`{"data":{"id":5,"stars":0,"starred":false}}`))
			}
		})
		v, err := c.SetVideoStar(context.Background(), "tok", 5, true)
		require.NoError(t, err)
		assert.True(t, v.Starred)
		v, err = c.SetVideoStar(context.Background(), "tok", 5, false)
		require.NoError(t, err)
		assert.False(t, v.Starred)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{http.MethodPost, http.MethodDelete}, methods)
	})

	t.Run("requires token", func(t *testing.T) {
		c := NewClient(Options{BaseURL: "http://127.0.0.1:1"}, nil)
		_, err := c.SetFollow(context.Background(), "", 1, true)
		assert.True(t, errors.Is(err, domain.ErrNotLoggedIn))
	})
}

func TestClient_Stream(t *testing.T) {
	payload := strings.Repeat("x", 4096)

	t.Run("reports content length", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", "4096")
			w.Write([]byte(payload))
		})
		body, total, err := c.Stream(context.Background(), "/media/1.mp4")
		require.NoError(t, err)
		defer body.Close()
		assert.Equal(t, int64(4096), total)
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Len(t, data, 4096)
	})

	t.Run("unknown length over the stream client", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
			w.(http.Flusher).Flush()
			w.Write([]byte(payload))
		})
		assert.Zero(t, c.stream.GetClient().Timeout)

		body, total, err := c.Stream(context.Background(), "media/3.mp4")
		require.NoError(t, err)
		defer body.Close()
		assert.Equal(t, int64(-1), total)
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Len(t, data, 4096)
	})

	t.Run("cancelled context", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(payload))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := c.Stream(ctx, "/media/4.mp4")
		assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing file", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, _, err := c.Stream(context.Background(), "/media/2.mp4")
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("empty url", func(t *testing.T) {
		c := NewClient(Options{}, nil)
		_, _, err := c.Stream(context.Background(), "")
		assert.Error(t, err)
	})
}
