package seo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// ErrUpstream is returned for a non-200 or malformed provider response.
var ErrUpstream = errors.New("seo: upstream error")

const maxBodyBytes = 4 << 20

// fetcher performs rate limited GET requests.
type fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	agent   string
}

func newFetcher(timeout time.Duration, perSecond float64) *fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if perSecond <= 0 {
		perSecond = 2
	}
	return &fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		agent:   "seoblog/1.0",
	}
}

func (f *fetcher) get(ctx context.Context, base string, params url.Values, headers map[string]string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := base
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.agent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return body, nil
}
