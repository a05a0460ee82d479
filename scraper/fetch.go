package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync/atomic"
)

// Fetch requests rawURL up to MaxAttempts times and decodes the first 200
// response into out. Failures of any kind are counted and retried after
// RetryDelay; once the attempts are exhausted Fetch reports false and the
// caller treats the request as having no data.
func (c *Client) Fetch(ctx context.Context, rawURL string, params url.Values, out any) bool {
	attempts := c.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			atomic.AddInt64(&c.retryCount, 1)
			c.Metrics.IncRetries()
		}

		status, body, err := c.Get(ctx, rawURL, params)
		if err == nil && status == http.StatusOK {
			decodeErr := json.Unmarshal(body, out)
			if decodeErr == nil {
				return true
			}
			err = ErrDecode{Err: decodeErr}
		}
		if ctx.Err() != nil {
			break
		}
		c.recordError(classifyError(err, status))

		if attempt < attempts {
			if sleepContext(ctx, c.cfg.RetryDelay) != nil {
				break
			}
		}
	}

	atomic.AddInt64(&c.failedCount, 1)
	return false
}
