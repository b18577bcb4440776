package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) RepairDesk-Catalog/1.0"

type Fetcher interface {
	Fetch(ctx context.Context, url string, headers []HeaderKV) ([]byte, error)
}

// HTTPFetcher downloads supplier pages with fasthttp.
type HTTPFetcher struct {
	client  *fasthttp.Client
	timeout time.Duration
}

func NewHTTPFetcher(timeout time.Duration, dial fasthttp.DialFunc) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPFetcher{
		client: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
			MaxResponseBodySize: 8 << 20,
			Dial:                dial,
		},
		timeout: timeout,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, headers []HeaderKV) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	for _, h := range headers {
		req.Header.Set(h.Name, h.Value)
	}

	deadline := time.Now().Add(f.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := f.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, status)
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}
