package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MediaFetcher downloads message attachments. Twilio-hosted media
// requires the account credentials as basic auth; anything else is
// fetched anonymously.
type MediaFetcher struct {
	httpClient *http.Client
	accountSID string
	authToken  string
	logger     *zap.Logger
}

// NewMediaFetcher creates a new media fetcher
func NewMediaFetcher(accountSID, authToken string, timeout time.Duration, logger *zap.Logger) *MediaFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MediaFetcher{
		httpClient: &http.Client{Timeout: timeout},
		accountSID: accountSID,
		authToken:  authToken,
		logger:     logger,
	}
}

// Fetch downloads an attachment and reports its mime type
func (f *MediaFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create media request: %w", err)
	}
	if strings.Contains(url, "api.twilio.com") && f.accountSID != "" && f.authToken != "" {
		req.SetBasicAuth(f.accountSID, f.authToken)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("media download returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}

	f.logger.Debug("Downloaded message media",
		zap.String("url", url),
		zap.Int("size", len(body)))

	return body, mimeFromURL(url), nil
}

// mimeFromURL guesses an image mime type from the URL extension. Twilio
// media links carry no extension and are almost always JPEG.
func mimeFromURL(url string) string {
	u := strings.ToLower(url)
	switch {
	case strings.HasSuffix(u, ".png"):
		return "image/png"
	case strings.HasSuffix(u, ".webp"):
		return "image/webp"
	case strings.HasSuffix(u, ".heic"), strings.HasSuffix(u, ".heif"):
		return "image/heic"
	default:
		return "image/jpeg"
	}
}
