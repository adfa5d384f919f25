package littlstar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/metrics"
)

// Stream opens a media file for download. total is -1 when the
// service does not send a Content-Length. The caller closes body.
func (c *Client) Stream(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	if url == "" {
		return nil, 0, domain.NotFoundError("stream", fmt.Errorf("%w: no media URL", domain.ErrItemNotFound))
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = c.baseURL + "/" + strings.TrimLeft(url, "/")
	}

	c.logger.Debug("opening media stream", "url", url)

	resp, err := c.stream.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("stream", metrics.StatusLabel(0)).Inc()
		if resp != nil && resp.RawResponse != nil {
			resp.RawBody().Close()
		}
		if ctx.Err() != nil {
			return nil, 0, domain.NetworkError("stream", ctx.Err())
		}
		return nil, 0, domain.NetworkError("stream", fmt.Errorf("%w: %v", domain.ErrServerOffline, err))
	}
	metrics.RequestsTotal.WithLabelValues("stream", metrics.StatusLabel(resp.StatusCode())).Inc()

	body := resp.RawBody()
	if resp.StatusCode() != http.StatusOK {
		body.Close()
		return nil, 0, statusError("stream", resp.StatusCode(), "")
	}

	total := resp.RawResponse.ContentLength
	if total < 0 {
		total = -1
	}
	return body, total, nil
}
