package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rosterbot/internal/httpx"
)

const maxErrorBody = 512

// FetchSheetText downloads the published CSV export. A _t cache-buster is
// appended so intermediaries never serve a stale copy.
func FetchSheetText(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("sheet url is empty")
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	reqURL := rawURL + sep + "_t=" + strconv.FormatInt(time.Now().UnixMilli(), 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := httpx.ExternalHTTPClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching sheet: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return "", fmt.Errorf("sheet returned %d: %s", resp.StatusCode, strings.TrimSpace(snippet))
	}
	return string(body), nil
}
