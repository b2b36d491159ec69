// Package directory implements the REST client for the external directory
// API, which owns users, dealers and the geographic hierarchy.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dealerdesk/api/internal/app"
	"github.com/dealerdesk/api/internal/config"
	"github.com/dealerdesk/api/internal/metrics"
	"github.com/dealerdesk/api/pkg/domain/assignment"
	"github.com/dealerdesk/api/pkg/domain/org"
	"github.com/dealerdesk/api/pkg/domain/role"
	"github.com/dealerdesk/api/pkg/domain/shared"
	"github.com/dealerdesk/api/pkg/logger"
)

// Client talks to the directory over HTTP. Requests are throttled client-side
// so a burst of form opens cannot trip the directory's own limits.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpc = c
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(log *logger.Logger) Option {
	return func(cl *Client) {
		if log != nil {
			cl.log = log
		}
	}
}

// New creates a directory client from config.
func New(cfg config.DirectoryConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpc:   &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		log:     logger.NewNop(),
	}
	if cfg.RatePerSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ app.Directory = (*Client)(nil)

// errorBody is the directory's error envelope.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ListRegions returns all regions.
func (c *Client) ListRegions(ctx context.Context) ([]org.Region, error) {
	var out []org.Region
	err := c.do(ctx, http.MethodGet, "/v1/regions", nil, nil, &out)
	return out, err
}

// ListAreas returns all areas.
func (c *Client) ListAreas(ctx context.Context) ([]org.Area, error) {
	var out []org.Area
	err := c.do(ctx, http.MethodGet, "/v1/areas", nil, nil, &out)
	return out, err
}

// ListTerritories returns all territories.
func (c *Client) ListTerritories(ctx context.Context) ([]org.Territory, error) {
	var out []org.Territory
	err := c.do(ctx, http.MethodGet, "/v1/territories", nil, nil, &out)
	return out, err
}

// ListDealers returns all dealers.
func (c *Client) ListDealers(ctx context.Context) ([]org.Dealer, error) {
	var out []org.Dealer
	err := c.do(ctx, http.MethodGet, "/v1/dealers", nil, nil, &out)
	return out, err
}

// ListUsersByRole returns users holding a role, optionally narrowed to a
// scope. Empty filter fields are omitted from the query.
func (c *Client) ListUsersByRole(ctx context.Context, name role.Name, filter app.ScopeFilter) ([]assignment.Candidate, error) {
	q := url.Values{}
	q.Set("role", name.String())
	setIfPresent(q, "region_id", filter.RegionID)
	setIfPresent(q, "area_id", filter.AreaID)
	setIfPresent(q, "territory_id", filter.TerritoryID)
	setIfPresent(q, "dealer_id", filter.DealerID)

	var out []assignment.Candidate
	err := c.do(ctx, http.MethodGet, "/v1/users", q, nil, &out)
	return out, err
}

// CreateUser creates a user in the directory.
func (c *Client) CreateUser(ctx context.Context, p app.UserPayload) error {
	return c.do(ctx, http.MethodPost, "/v1/users", nil, p, nil)
}

// UpdateUser updates a user in the directory.
func (c *Client) UpdateUser(ctx context.Context, id string, p app.UserPayload) error {
	return c.do(ctx, http.MethodPut, "/v1/users/"+url.PathEscape(id), nil, p, nil)
}

// CreateDealer creates a dealer in the directory.
func (c *Client) CreateDealer(ctx context.Context, p app.DealerPayload) error {
	return c.do(ctx, http.MethodPost, "/v1/dealers", nil, p, nil)
}

// UpdateDealer updates a dealer in the directory.
func (c *Client) UpdateDealer(ctx context.Context, id string, p app.DealerPayload) error {
	return c.do(ctx, http.MethodPut, "/v1/dealers/"+url.PathEscape(id), nil, p, nil)
}

// Ping checks directory reachability for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func setIfPresent(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// do performs one request against the directory: rate limit, auth, JSON in
// and out, status mapping to domain errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("directory rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	metrics.DirectoryRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DirectoryRequests.WithLabelValues(op, "error").Inc()
		return shared.NewDomainError("UPSTREAM_UNAVAILABLE", "directory request failed",
			fmt.Errorf("%w: %w", shared.ErrUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		metrics.DirectoryRequests.WithLabelValues(op, "rejected").Inc()
		return c.statusError(resp)
	}
	metrics.DirectoryRequests.WithLabelValues(op, "ok").Inc()

	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// statusError maps an error response to a domain error, carrying the
// directory's own message so the form layer can match known rejections.
func (c *Client) statusError(resp *http.Response) error {
	msg := readErrorMessage(resp.Body)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return shared.NewDomainError("NOT_FOUND", msg, shared.ErrNotFound)
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusConflict,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return shared.NewRejectionError(msg)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return shared.NewDomainError("UPSTREAM_UNAVAILABLE", msg, shared.ErrUnavailable)
	default:
		return shared.NewDomainError("UPSTREAM_ERROR",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, msg), shared.ErrInternal)
	}
}

// readErrorMessage extracts the directory's error message, falling back to
// the raw body.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(raw) == 0 {
		return "directory request rejected"
	}
	var e errorBody
	if err := json.Unmarshal(raw, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
