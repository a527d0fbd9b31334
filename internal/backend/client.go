// internal/backend/client.go
//
// HTTP client for the external donor API.
//
// Context
//   The donor API is the system of record for donors and donation requests.
//   The portal never stores either; it reads donors and creates requests
//   through this client, forwarding the caller's access token.
//
// Endpoints (relative to BaseURL)
//   GET  /donor-list               – paged, filtered donor list
//   GET  /donor-list/{id}          – one donor
//   GET  /users/{userID}/donor     – the donor profile a user owns
//   POST /donation-request         – create a donation request
//
//   Every reply is wrapped in {success, message, data, meta}.
//
// Notes
//   •  Reads go through go-retryablehttp: connection errors, 429, and 5xx
//      are retried with backoff up to RetryMax times.
//   •  Creates use a plain client and are never retried, so one Submit
//      produces at most one request on the backend.
//   •  Both clients share Options.Timeout per attempt.
//
//------------------------------------------------------------------------------

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/plasmapioneers/portal/internal/metrics"
)

// Options configures New.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
	Log      *zap.SugaredLogger
}

// Client talks to the donor API.  Safe for concurrent use.
type Client struct {
	base   *url.URL
	reads  *retryablehttp.Client
	writes *http.Client
}

// New builds a Client.  BaseURL must be absolute.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid base url %q", opts.BaseURL)
	}
	log := opts.Log
	if log == nil {
		log = zap.S()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = opts.Timeout
	rc.Logger = zapLeveled{log.Named("backend")}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		base:   u,
		reads:  rc,
		writes: &http.Client{Timeout: opts.Timeout},
	}, nil
}

// envelope is the backend's reply wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *Meta           `json:"meta,omitempty"`
}

// Meta carries list paging info.
type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

/*──────────────────────────── reads ───────────────────────────────────────*/

// DonorFilter narrows the donor list.  Zero values are omitted.
type DonorFilter struct {
	BloodType    string
	Location     string
	Availability string // "true", "false", or ""
	SearchTerm   string
	Page         int
	Limit        int
}

func (f DonorFilter) query() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("bloodType", f.BloodType)
	set("location", f.Location)
	set("availability", f.Availability)
	set("searchTerm", f.SearchTerm)
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// Donors returns one page of donors as raw JSON plus paging info.  The
// portal passes list items through untouched.
func (c *Client) Donors(ctx context.Context, token string, f DonorFilter) (json.RawMessage, *Meta, error) {
	env, err := c.read(ctx, "donors", token, "/donor-list", f.query())
	if err != nil {
		return nil, nil, err
	}
	return env.Data, env.Meta, nil
}

// Donor fetches one donor by id into out.
func (c *Client) Donor(ctx context.Context, token, id string, out any) error {
	return c.readOne(ctx, "donor", token, "/donor-list/"+url.PathEscape(id), out)
}

// DonorByUser fetches the donor profile owned by userID into out.
func (c *Client) DonorByUser(ctx context.Context, token, userID string, out any) error {
	return c.readOne(ctx, "donor_by_user", token, "/users/"+url.PathEscape(userID)+"/donor", out)
}

func (c *Client) readOne(ctx context.Context, op, token, path string, out any) error {
	env, err := c.read(ctx, op, token, path, nil)
	if err != nil {
		return err
	}
	if isNull(env.Data) {
		return ErrNotFound
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("backend %s: decode: %w", op, err)
	}
	return nil
}

func (c *Client) read(ctx context.Context, op, token, path string, q url.Values) (*envelope, error) {
	start := time.Now()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, q), nil)
	if err != nil {
		return nil, err
	}
	authorize(req.Header, token)

	resp, err := c.reads.Do(req)
	env, err := decode(op, resp, err)
	observe(op, start, err)
	return env, err
}

/*──────────────────────────── writes ──────────────────────────────────────*/

// CreateDonationRequest posts payload once.  The returned raw data is the
// created record; it is nil when the backend replied without data, which
// callers treat as a falsy result.
func (c *Client) CreateDonationRequest(ctx context.Context, token string, payload any) (json.RawMessage, error) {
	const op = "create_request"
	start := time.Now()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("backend %s: encode: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/donation-request", nil), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	authorize(req.Header, token)

	resp, err := c.writes.Do(req)
	env, err := decode(op, resp, err)
	observe(op, start, err)
	if err != nil {
		return nil, err
	}
	if !env.Success || isNull(env.Data) {
		return nil, nil
	}
	return env.Data, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// authorize forwards the caller's token the way the frontend sends it:
// bare, without a Bearer prefix.
func authorize(h http.Header, token string) {
	h.Set("Accept", "application/json")
	if token != "" {
		h.Set("Authorization", token)
	}
}

// decode maps transport errors, status codes, and the envelope.
func decode(op string, resp *http.Response, err error) (*envelope, error) {
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("backend %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("backend %s: read body: %w", op, err)
	}

	var env envelope
	jsonErr := json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if jsonErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Op: op, Status: resp.StatusCode, Message: msg}
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("backend %s: decode envelope: %w", op, jsonErr)
	}
	return &env, nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

func observe(op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	metrics.BackendRequestDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}
