package nearcade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/park285/nearcade-kakao-bot/pkg/nearcadedto"
	"github.com/valyala/fasthttp"
)

const defaultPageSize = 50

// Client talks to the nearcade REST API.
type Client struct {
	apiBase string
	token   string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDialer replaces the TCP dialer; tests use it with an in-memory listener.
func WithDialer(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

// NewClient normalizes apiBase so that it always ends in /api without a trailing slash.
func NewClient(apiBase, token string, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	c := &Client{
		apiBase:        base,
		token:          strings.TrimSpace(token),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 32},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.apiBase }

// SearchShops pages through GET /shops until maxResults shops are collected or there is
// no next page. maxResults <= 0 means every page.
func (c *Client) SearchShops(ctx context.Context, query string, maxResults int) ([]nearcadedto.Shop, error) {
	pageSize := defaultPageSize
	if maxResults > 0 && maxResults < pageSize {
		pageSize = maxResults
	}
	var shops []nearcadedto.Shop
	for page := 1; ; page++ {
		path := fmt.Sprintf("/shops?q=%s&limit=%d&page=%d", url.QueryEscape(query), pageSize, page)
		var resp nearcadedto.ShopsListResponse
		if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &resp, true); err != nil {
			return nil, err
		}
		shops = append(shops, resp.Shops...)
		if maxResults > 0 && len(shops) >= maxResults {
			return shops[:maxResults], nil
		}
		if !resp.HasNextPage || len(resp.Shops) == 0 {
			return shops, nil
		}
	}
}

func (c *Client) GetShop(ctx context.Context, source string, id int64) (*nearcadedto.Shop, error) {
	var resp nearcadedto.ShopInfoResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, shopPath(source, id), nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp.Shop, nil
}

func (c *Client) GetAttendance(ctx context.Context, source string, id int64) (*nearcadedto.AttendanceResponse, error) {
	var resp nearcadedto.AttendanceResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, shopPath(source, id)+"/attendance", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReportAttendance submits an absolute headcount for one game unit. It is never retried:
// a timed-out POST may still have been applied.
func (c *Client) ReportAttendance(ctx context.Context, source string, id, gameUnitID int64, count int, comment string) (*nearcadedto.AttendanceReportResponse, error) {
	req := nearcadedto.AttendanceReportRequest{
		Games:   []nearcadedto.ReportedGame{{ID: gameUnitID, CurrentAttendances: count}},
		Comment: comment,
	}
	var resp nearcadedto.AttendanceReportResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, shopPath(source, id)+"/attendance", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func shopPath(source string, id int64) string {
	return "/shops/" + url.PathEscape(strings.ToLower(strings.TrimSpace(source))) + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	if c == nil || c.http == nil {
		return ErrNotConfigured
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.apiBase + path)
	req.Header.SetContentType("application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			apiErr := &APIError{Status: status, Body: truncate(string(resp.Body()), 512)}
			if attempt == attempts || !shouldRetryStatus(status) {
				return apiErr
			}
			lastErr = apiErr
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 5 {
		attempt = 5
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
