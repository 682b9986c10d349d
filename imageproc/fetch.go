package imageproc

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

const imageAccept = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"

// fetch downloads one image, sending the product page as Referer for
// hotlink-protected CDNs. Anything other than a 200 with an image/*
// content type is rejected, as is a body larger than maxBytes.
func (p *Processor) fetch(ctx context.Context, rawURL, referer string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", imageAccept)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrFetch, resp.StatusCode)
	}
	if ct := contentType(resp.Header.Get("Content-Type")); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%w: content type %q", ErrNotImage, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if int64(len(body)) > p.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrFetch, p.maxBytes)
	}
	return body, nil
}

// contentType returns the lower-cased media type without parameters.
func contentType(header string) string {
	if mt, _, err := mime.ParseMediaType(header); err == nil {
		return mt
	}
	mt, _, _ := strings.Cut(header, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
