// Package feed fetches and parses the remote spreadsheet feeds: item
// metadata and the price record stream, both published as tab-separated
// text with a header row.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// cacheBustWindow coarsens the cache-busting query parameter so repeated
// loads within the window hit the CDN cache instead of the origin sheet.
const cacheBustWindow = 5 * time.Minute

// Client fetches feed documents over HTTP.
type Client struct {
	http *resty.Client
	now  func() time.Time
}

// NewClient creates a feed client with a request timeout.
func NewClient() *Client {
	c := resty.New()
	c.SetTimeout(30 * time.Second)
	c.SetHeader("User-Agent", "refine-board/1.0")
	return &Client{http: c, now: time.Now}
}

// FetchTSV downloads one feed document and returns its body.
// Non-success statuses are errors; the body is not inspected further here.
func (c *Client) FetchTSV(ctx context.Context, url string) (string, error) {
	tick := c.now().Unix() / int64(cacheBustWindow.Seconds())

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("t", fmt.Sprintf("%d", tick)).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch feed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("fetch feed: status %d", resp.StatusCode())
	}
	return string(resp.Body()), nil
}
