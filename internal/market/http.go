package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %s", e.Endpoint, e.Status)
}

// fetcher issues throttled JSON GET requests against one base URL.
type fetcher struct {
	base    string
	client  *http.Client
	limiter *rate.Limiter
}

func newFetcher(base string, client *http.Client, perSec float64) *fetcher {
	limit := rate.Inf
	if perSec > 0 {
		limit = rate.Limit(perSec)
	}
	return &fetcher{
		base:    base,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// getJSON requests base/endpoint with params and decodes the body into out.
// The endpoint, not the full URL, appears in errors so query credentials
// never reach logs.
func (f *fetcher) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit: %w", endpoint, err)
	}

	u := f.base + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// redact drops the URL from transport errors.
func redact(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return ue.Err
	}
	return err
}
