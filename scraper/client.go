package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aluiziolira/tmdb-crawl/config"
	"github.com/aluiziolira/tmdb-crawl/models"
	"github.com/gocolly/colly/v2"
)

const responseKey = "response"

var errNoResponse = errors.New("no response captured")

// Client is the TMDB API session: one colly collector carrying the bearer
// token and default language for every request.
type Client struct {
	cfg       *config.Config
	collector *colly.Collector
	headers   http.Header
	Metrics   *Metrics

	requestCount int64
	retryCount   int64
	failedCount  int64
	pageCount    int64

	mu           sync.Mutex
	errorsByType map[string]int
}

// NewClient builds a client configured from cfg.
func NewClient(cfg *config.Config) (*Client, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	headers := http.Header{}
	headers.Set("Accept", "application/json")
	headers.Set("Authorization", "Bearer "+cfg.APIKey)

	c := &Client{
		cfg:          cfg,
		collector:    collector,
		headers:      headers,
		errorsByType: make(map[string]int),
		Metrics:      NewMetrics(),
	}
	c.configureHandlers()
	return c, nil
}

// WithTransport replaces the underlying HTTP transport.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.collector.WithTransport(rt)
}

func (c *Client) configureHandlers() {
	c.collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		atomic.AddInt64(&c.requestCount, 1)
		c.Metrics.IncRequest("started")
	})

	c.collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(responseKey, r)
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			c.Metrics.ObserveDuration(time.Since(start))
		}
		if r.StatusCode == http.StatusOK {
			c.Metrics.IncRequest("succeeded")
		} else {
			c.Metrics.IncRequest("failed")
		}
	})
}

// Get issues one GET against rawURL. The default language parameter is
// added unless params already carries one. No retry happens here.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	target, err := c.buildURL(rawURL, params)
	if err != nil {
		return 0, nil, err
	}

	reqCtx := colly.NewContext()
	err = c.collector.Request(http.MethodGet, target, nil, reqCtx, c.headers.Clone())
	resp, _ := reqCtx.GetAny(responseKey).(*colly.Response)
	if err != nil {
		if resp != nil {
			return resp.StatusCode, nil, err
		}
		return 0, nil, err
	}
	if resp == nil {
		return 0, nil, errNoResponse
	}
	return resp.StatusCode, resp.Body, nil
}

// Endpoint joins an API path onto the configured base URL.
func (c *Client) Endpoint(path string) string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + path
}

func (c *Client) buildURL(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse request url: %w", err)
	}
	query := u.Query()
	for key, values := range params {
		query.Del(key)
		for _, value := range values {
			query.Add(key, value)
		}
	}
	if query.Get("language") == "" && c.cfg.Language != "" {
		query.Set("language", c.cfg.Language)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// Throttle pauses for the configured inter-request delay.
func (c *Client) Throttle(ctx context.Context) error {
	return sleepContext(ctx, c.cfg.Delay)
}

// Stats copies the request counters into result.
func (c *Client) Stats(result *models.RunResult) {
	result.RequestCount = int(atomic.LoadInt64(&c.requestCount))
	result.RetryCount = int(atomic.LoadInt64(&c.retryCount))
	result.FailedCount = int(atomic.LoadInt64(&c.failedCount))
	result.PageCount = int(atomic.LoadInt64(&c.pageCount))
	result.ErrorsByType = c.snapshotErrors()
}

func (c *Client) recordError(err error) {
	category := errorTypeLabel(err)
	c.mu.Lock()
	c.errorsByType[category]++
	c.mu.Unlock()
	c.Metrics.IncError(category)
}

func (c *Client) snapshotErrors() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.errorsByType))
	for k, v := range c.errorsByType {
		out[k] = v
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
