package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

// maxFeedBytes caps a feed response body.
const maxFeedBytes = 64 << 20

var _ model.RecordSource = (*FeedSource)(nil)

// FeedSource fetches scraped items from an HTTP endpoint serving the same
// JSON shapes FileSource reads.
type FeedSource struct {
	name     string
	url      string
	platform string
	client   *http.Client
	now      func() time.Time
}

// NewFeedSource creates a source for the feed at url.
func NewFeedSource(name, url, platform string, client *http.Client) *FeedSource {
	return &FeedSource{name: name, url: url, platform: platform, client: client, now: time.Now}
}

func (s *FeedSource) Name() string { return s.name }

// URL is the feed endpoint; rate limiting keys on its host.
func (s *FeedSource) URL() string { return s.url }

// Fetch downloads and decodes the feed. Non-200 responses come back as
// *model.HTTPError so the retry layer can classify them.
func (s *FeedSource) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	body, err := get(ctx, s.client, s.url)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", s.name, err)
	}
	recs, err := decodeRecords(body, s.platform, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", s.name, err)
	}
	return recs, nil
}

// get performs a GET and returns the body of a 200 response.
func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("GET %s: reading body: %w", url, err)
	}
	return body, nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
