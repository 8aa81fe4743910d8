// Package api is the HTTP client for the pennywise expense backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/log"
	"github.com/pennywise-app/pennywise/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is where the backend listens in development.
	DefaultBaseURL = "http://127.0.0.1:5000"
	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second

	maxBodySize = 1 << 20 // 1 MB
	userAgent   = "pennywise/1.0"
)

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l.WithComponent(log.ComponentAPI) }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: invalid base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("api: invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL: baseURL,
		timeout: DefaultTimeout,
		http:    &http.Client{},
		log:     log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchExpenses returns every expense owned by owner, in server order.
func (c *Client) FetchExpenses(ctx context.Context, owner string) ([]model.Expense, error) {
	var resp expensesResponse
	q := url.Values{"username": {owner}}
	if _, err := c.get(ctx, "get_expenses", "/api/get_expenses", q, &resp); err != nil {
		return nil, err
	}
	if resp.Expenses == nil {
		return []model.Expense{}, nil
	}
	return resp.Expenses, nil
}

// AddExpense submits a validated expense for owner.
func (c *Client) AddExpense(ctx context.Context, owner string, e model.NewExpense) error {
	req := addExpenseRequest{
		Username: owner,
		Name:     e.Name,
		Amount:   json.Number(e.Amount.String()),
		Category: e.Category,
		Date:     e.DateString(),
	}
	_, err := c.post(ctx, "add_expense", "/api/add_expense", req, nil)
	return err
}

// DeleteExpenses removes the given ids in one request.
func (c *Client) DeleteExpenses(ctx context.Context, ids []model.ID) error {
	_, err := c.post(ctx, "delete_expenses", "/api/delete_expenses", deleteExpensesRequest{ExpenseIDs: ids}, nil)
	return err
}

// UserInfo returns the profile of owner.
func (c *Client) UserInfo(ctx context.Context, owner string) (model.UserInfo, error) {
	var info model.UserInfo
	q := url.Values{"username": {owner}}
	if _, err := c.get(ctx, "get_user_info", "/api/get_user_info", q, &info); err != nil {
		return model.UserInfo{}, err
	}
	info.Username = owner
	return info, nil
}

// UpdateProfile saves a profile edit and returns the server's message.
func (c *Client) UpdateProfile(ctx context.Context, p model.ProfileUpdate) (string, error) {
	req := profileRequest{
		Username: p.Username,
		Name:     p.Name,
		Email:    p.Email,
		Password: p.Password,
	}
	return c.post(ctx, "update_profile", "/api/update_profile", req, nil)
}

// Threshold returns the monthly spending limit of owner.
func (c *Client) Threshold(ctx context.Context, owner string) (model.Threshold, error) {
	var th model.Threshold
	q := url.Values{"username": {owner}}
	if _, err := c.get(ctx, "get_threshold", "/api/get_threshold", q, &th); err != nil {
		return model.Threshold{}, err
	}
	return th, nil
}

// SetThreshold stores a new monthly limit and returns the server's message.
func (c *Client) SetThreshold(ctx context.Context, owner string, amount decimal.Decimal) (string, error) {
	req := setThresholdRequest{Username: owner, Amount: json.Number(amount.String())}
	return c.post(ctx, "set_threshold", "/api/set_threshold", req, nil)
}

// SignIn checks credentials. The backend keeps no session; the caller
// remembers the username on success.
func (c *Client) SignIn(ctx context.Context, cr model.Credentials) (string, error) {
	return c.post(ctx, "signin", "/api/signin", signInRequest(cr), nil)
}

// SignUp creates an account.
func (c *Client) SignUp(ctx context.Context, r model.Registration) (string, error) {
	req := signUpRequest{Name: r.Name, Username: r.Username, Email: r.Email, Password: r.Password}
	return c.post(ctx, "signup", "/api/signup", req, nil)
}

// Ping checks that the backend answers at all.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/hello", nil)
	if err != nil {
		return &TransportError{Op: "ping", Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: "ping", Err: err}
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &RemoteError{Op: "ping", Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", &TransportError{Op: op, Err: err}
	}
	return c.do(req, op, out)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("api: %s: encoding request: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, op, out)
}

// do sends req and decodes the envelope. On success the full body is decoded
// into out (when non-nil) and the server's message is returned.
func (c *Client) do(req *http.Request, op string, out any) (string, error) {
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", log.FieldOperation, op, log.FieldRequestID, reqID, log.FieldError, err)
		return "", &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return "", &TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}
	if len(body) > maxBodySize {
		c.log.Warn("response too large", log.FieldOperation, op, log.FieldRequestID, reqID)
		return "", fmt.Errorf("api: %s: %w", op, ErrResponseTooLarge)
	}
	c.log.Debug("request",
		log.FieldOperation, op,
		log.FieldRequestID, reqID,
		log.FieldStatus, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds(),
	)

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if decodeErr == nil {
			msg = env.Message
		}
		return "", &RemoteError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return "", &TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", decodeErr)}
	}
	if env.Success == nil {
		return "", &TransportError{Op: op, Err: errors.New("malformed response: missing success field")}
	}
	if !*env.Success {
		return "", &RemoteError{Op: op, Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return "", &TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
		}
	}
	return env.Message, nil
}
