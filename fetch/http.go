package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxResponseBodySize = 4 << 20 // 4MB

// connection pooling limits to prevent resource exhaustion when many venues
// are polled against the same upstream host
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
	defaultFetchTimeout        = 20 * time.Second
)

// HTTPAdapter fetches schedules from an upstream JSON endpoint.
//
// Expected endpoint:
//
//	GET {base}/trade/time.do?m=init&city_code=...&cinema_id=...&day=...
//
// The response must be a JSON array of film objects, each carrying a
// timeShowSectionList of show objects. A cache-busting timestamp and a
// random nonce are appended to every request.
type HTTPAdapter struct {
	baseURL   string
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// HTTPAdapterOptions configures an [HTTPAdapter].
type HTTPAdapterOptions struct {
	// BaseURL is the upstream base URL (required).
	BaseURL string

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Timeout is the per-request timeout. Defaults to 20s.
	Timeout time.Duration
}

// NewHTTPAdapter creates an HTTP JSON schedule adapter.
func NewHTTPAdapter(opts HTTPAdapterOptions) (*HTTPAdapter, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, errors.New("BaseURL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}
	to := opts.Timeout
	if to <= 0 {
		to = defaultFetchTimeout
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = "showwatch/1.0"
	}
	return &HTTPAdapter{
		baseURL: strings.TrimRight(base, "/"),
		client: &http.Client{
			// no global timeout - per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		userAgent: ua,
		timeout:   to,
	}, nil
}

// FetchSchedule performs the schedule request for one venue.
//
// The returned error wraps one of the four sentinel failure classes:
// [ErrTransport], [ErrDecode], [ErrNotCollection] or [ErrEmpty].
func (a *HTTPAdapter) FetchSchedule(ctx context.Context, req Request) (Schedule, Meta, error) {
	start := time.Now()

	u, err := url.Parse(a.baseURL + "/trade/time.do")
	if err != nil {
		return nil, Meta{Latency: time.Since(start)}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	q := u.Query()
	q.Set("m", "init")
	q.Set("city_code", req.RegionCode)
	q.Set("cinema_id", req.VenueID)
	q.Set("day", req.Date)
	q.Set("rond", strconv.FormatFloat(rand.Float64(), 'f', -1, 64))
	q.Set("_", strconv.FormatInt(time.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	body, status, err := a.doGET(ctx, u.String())
	meta := Meta{StatusCode: status, Latency: time.Since(start)}
	if err != nil {
		return nil, meta, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	sched, err := DecodeSchedule(body)
	if err != nil {
		return nil, meta, err
	}
	return sched, meta, nil
}

// DecodeSchedule decodes a raw payload, classifying shape failures.
func DecodeSchedule(body []byte) (Schedule, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrDecode)
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotCollection
	}
	var sched Schedule
	if err := json.Unmarshal(trimmed, &sched); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(sched) == 0 {
		return nil, ErrEmpty
	}
	return sched, nil
}

func (a *HTTPAdapter) doGET(ctx context.Context, u string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("http status %d", resp.StatusCode)
	}
	return b, resp.StatusCode, nil
}

// Close releases idle connections in the adapter's pool. The adapter
// remains usable after Close.
func (a *HTTPAdapter) Close() {
	if a == nil || a.client == nil {
		return
	}
	if transport, ok := a.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
