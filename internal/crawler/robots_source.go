package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nao1215/anteater/internal/robots"
)

// maxRobotsSize caps the bytes read from a robots.txt response.
const maxRobotsSize = 512 * 1024

// HTTPSource implements robots.Source by fetching <origin>/robots.txt.
type HTTPSource struct {
	client    *http.Client
	userAgent string
}

// NewHTTPSource creates an HTTPSource. A nil client uses http.DefaultClient.
func NewHTTPSource(client *http.Client, userAgent string) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPSource{client: client, userAgent: userAgent}
}

// Fetch implements robots.Source. 404 and 410 mean the origin has no robots
// file; any other non-200 status is ErrRobotsUnavailable.
func (s *HTTPSource) Fetch(ctx context.Context, origin string) ([]byte, error) {
	target := strings.TrimSuffix(origin, "/") + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", robots.ErrInvalidOrigin, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", robots.ErrRobotsUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: status %d", robots.ErrRobotsUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", robots.ErrRobotsUnavailable, err)
	}
	return data, nil
}
