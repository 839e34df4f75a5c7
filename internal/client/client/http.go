package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
)

const maxResponseBytes = 1 << 20

// HTTPClient is a client of the accounts HTTP API. The session token, once
// set, is sent with every request.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetToken(token string) { c.token = token }

func (c *HTTPClient) Register(ctx context.Context, email, password string) (*RegisterResult, error) {
	var res RegisterResult
	err := c.do(ctx, http.MethodPost, "/auth", actionRequest{Action: "register", Email: email, Password: password}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// VerifyEmail confirms the address. The server answers with a fresh
// session, whose token is remembered like Login does.
func (c *HTTPClient) VerifyEmail(ctx context.Context, email, code string) (*Session, error) {
	var res Session
	err := c.do(ctx, http.MethodPost, "/auth", actionRequest{Action: "verify_email", Email: email, Code: code}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

// Login opens a session and remembers its token for later calls.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var res Session
	err := c.do(ctx, http.MethodPost, "/auth", actionRequest{Action: "login", Email: email, Password: password}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var res struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth", nil, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

func (c *HTTPClient) RequestReset(ctx context.Context, email string) (string, error) {
	return c.message(ctx, http.MethodPost, "/account", actionRequest{Action: "request_reset", Email: email})
}

func (c *HTTPClient) VerifyResetCode(ctx context.Context, email, code string) (*ResetCodeCheck, error) {
	var res ResetCodeCheck
	err := c.do(ctx, http.MethodPost, "/account", actionRequest{Action: "verify_reset_code", Email: email, Code: code}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email, code, password string) (string, error) {
	return c.message(ctx, http.MethodPost, "/account",
		actionRequest{Action: "reset_password", Email: email, Code: code, Password: password})
}

// DeleteAccount removes the account of the current session and forgets the token.
func (c *HTTPClient) DeleteAccount(ctx context.Context) (string, error) {
	msg, err := c.message(ctx, http.MethodDelete, "/account", nil)
	if err != nil {
		return "", err
	}
	c.token = ""
	return msg, nil
}

func (c *HTTPClient) Donate(ctx context.Context, amount float64) (*Donation, error) {
	var res struct {
		Donation *Donation `json:"donation"`
	}
	if err := c.do(ctx, http.MethodPost, "/donations", map[string]float64{"amount": amount}, &res); err != nil {
		return nil, err
	}
	return res.Donation, nil
}

func (c *HTTPClient) Donations(ctx context.Context) (*DonationSummary, error) {
	var res DonationSummary
	if err := c.do(ctx, http.MethodGet, "/donations", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Subscribe(ctx context.Context, email string) (string, error) {
	return c.message(ctx, http.MethodPost, "/subscriptions", actionRequest{Action: "subscribe", Email: email})
}

func (c *HTTPClient) Unsubscribe(ctx context.Context, token, email string) (string, error) {
	return c.message(ctx, http.MethodPost, "/subscriptions", actionRequest{Action: "unsubscribe", Token: token, Email: email})
}

func (c *HTTPClient) SubscriptionStatus(ctx context.Context, email string) (*SubscriptionStatus, error) {
	var res SubscriptionStatus
	if err := c.do(ctx, http.MethodPost, "/subscriptions", actionRequest{Action: "status", Email: email}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *HTTPClient) message(ctx context.Context, method, path string, body any) (string, error) {
	var res messageResponse
	if err := c.do(ctx, method, path, body, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// do sends body as JSON and decodes a 2xx response into out when out is
// not nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthTokenHeaderName, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Code = e.Code
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
