// Package fetch implements artifact retrieval from an HTTP registry.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Fetcher = (*Client)(nil)

// Client implements ports.Fetcher against a flat HTTP registry laid out as
// <registry>/<package>/<filename>. Direct-URL artifacts bypass the registry.
type Client struct {
	registry   string
	maxRetries uint64
	httpClient *http.Client
}

// NewClient creates a fetcher for the given registry base URL. maxRetries
// bounds the retry count per artifact; transport construction stays with the
// default client so proxy settings from the environment apply.
func NewClient(registry string, maxRetries int) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		registry:   strings.TrimSuffix(registry, "/"),
		maxRetries: uint64(maxRetries),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Fetch streams the artifact body. Server-side failures and connection errors
// are retried with exponential backoff; client errors such as 404 are
// permanent and fail immediately.
func (c *Client) Fetch(ctx context.Context, pkg string, artifact domain.ArtifactDescriptor) (io.ReadCloser, error) {
	url := c.urlFor(pkg, artifact)

	var body io.ReadCloser
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(zerr.Wrap(err, "failed to build request"))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return zerr.Wrap(err, "request failed")
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			body = resp.Body
			return nil
		case resp.StatusCode >= http.StatusInternalServerError,
			resp.StatusCode == http.StatusTooManyRequests:
			drain(resp.Body)
			return fmt.Errorf("registry returned %s", resp.Status)
		default:
			drain(resp.Body)
			return backoff.Permanent(fmt.Errorf("registry returned %s", resp.Status))
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newExponential(), c.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		failed := zerr.With(domain.ErrFetchFailed, "package", pkg)
		failed = zerr.With(failed, "url", url)
		return nil, zerr.With(failed, "cause", err.Error())
	}
	return body, nil
}

func (c *Client) urlFor(pkg string, artifact domain.ArtifactDescriptor) string {
	if artifact.Kind == domain.KindURL {
		return artifact.Filename
	}
	return fmt.Sprintf("%s/%s/%s", c.registry, pkg, artifact.Filename)
}

func newExponential() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	return bo
}

// drain empties the body so the connection can be reused across retries.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<16))
	_ = body.Close()
}
