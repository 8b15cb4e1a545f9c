package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	templateFetchTimeout  = 30 * time.Second
	templateFetchRetries  = 2
	templateFetchInterval = 5 * time.Second
)

// TemplateFetcher retrieves task graph templates over HTTP. Each attempt
// is bounded by templateFetchTimeout; network errors and non-2xx
// responses are retried templateFetchRetries times at a fixed interval.
type TemplateFetcher struct {
	httpClient    *http.Client
	retryInterval time.Duration
}

func NewTemplateFetcher() *TemplateFetcher {
	return &TemplateFetcher{
		httpClient:    &http.Client{Timeout: templateFetchTimeout},
		retryInterval: templateFetchInterval,
	}
}

func (f *TemplateFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var body string
	backoff := retry.WithMaxRetries(templateFetchRetries, retry.NewConstant(f.retryInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := f.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, resp.Body)
			return retry.RetryableError(fmt.Errorf("unexpected status %s", resp.Status))
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		body = string(b)
		return nil
	})
	if err != nil {
		return "", TemplateFetchError{URL: url, Err: err}
	}
	return body, nil
}
