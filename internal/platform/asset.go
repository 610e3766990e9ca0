package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
)

// FetchAsset performs a GET of a media asset URL and returns the body stream
// together with the response Content-Type. Relative URLs are resolved against
// the platform base URL; absolute URLs (object-store hosts) are fetched as
// given, with the session's cookies available through the shared jar.
//
// Asset reads are idempotent and retried on transient transport failure like
// any other read. The caller owns the returned reader.
func (s *Session) FetchAsset(ctx context.Context, assetURL string) (io.ReadCloser, string, error) {
	if assetURL == "" {
		return nil, "", fmt.Errorf("%w: empty asset URL", shared.ErrInvalidArgument)
	}
	if !strings.Contains(assetURL, "://") {
		assetURL = s.baseURL + "/" + strings.TrimLeft(assetURL, "/")
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(s.retryWait * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create asset request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}

		resp, err := s.client.GetClient().Do(req)
		if err != nil {
			lastErr = transportError(err)
			continue
		}

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			resp.Body.Close()
			return nil, "", &RemoteError{Status: resp.StatusCode}
		}

		return resp.Body, resp.Header.Get("Content-Type"), nil
	}

	return nil, "", lastErr
}
