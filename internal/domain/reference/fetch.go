package reference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"exam-analyzer-go/internal/platform/observability"
)

// recordedHeaders are copied into the manifest.
var recordedHeaders = []string{"Content-Type", "Content-Length", "ETag", "Last-Modified"}

type fetched struct {
	body    []byte
	sha256  string
	headers map[string]string
}

// download performs a single GET. Anything but 200 is an error.
func (c *Cache) download(ctx context.Context, url string) (dl *fetched, err error) {
	ctx, end := observability.StartSpan(ctx, "reference", "download")
	defer func() { end(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	sum := sha256.Sum256(body)
	headers := make(map[string]string, len(recordedHeaders))
	for _, h := range recordedHeaders {
		if v := resp.Header.Get(h); v != "" {
			headers[h] = v
		}
	}

	observability.RecordMetric(ctx, "reference_download_bytes", float64(len(body)), map[string]string{"url": url})
	return &fetched{body: body, sha256: hex.EncodeToString(sum[:]), headers: headers}, nil
}
