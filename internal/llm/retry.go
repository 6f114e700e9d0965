package llm

import (
	"context"
	"errors"
	"net"
	"time"
)

// retryableStatuses mirror the upstream failures worth a second attempt:
// rate limiting and transient provider outages.
var retryableStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// RetryingClient bounds every call with a timeout and retries exactly once,
// only on transient transport faults. Application-level failures pass through.
type RetryingClient struct {
	inner   Client
	timeout time.Duration
	backoff time.Duration
}

func WithRetry(inner Client, timeout time.Duration) *RetryingClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RetryingClient{inner: inner, timeout: timeout, backoff: 2 * time.Second}
}

func (c *RetryingClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	resp, err := c.generateOnce(ctx, messages)
	if err == nil || !IsTransient(err) || ctx.Err() != nil {
		return resp, err
	}

	select {
	case <-time.After(c.backoff):
	case <-ctx.Done():
		return Response{}, err
	}
	return c.generateOnce(ctx, messages)
}

func (c *RetryingClient) generateOnce(ctx context.Context, messages []Message) (Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.inner.Generate(callCtx, messages)
}

// IsTransient reports whether err looks like a transient transport fault:
// rate limiting, an upstream 5xx, or a network timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var gw *GatewayError
	if errors.As(err, &gw) && retryableStatuses[gw.Status] {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
