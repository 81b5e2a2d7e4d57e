// Package tokengate is the Go client for the tokengate HTTP API.
package tokengate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the tokengate API client. A zero token means unauthenticated;
// Login fills it in, or set one explicitly with SetToken.
type Client struct {
	baseURL    string
	tokenName  string
	token      string
	httpClient *http.Client
}

// Option is a function that configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithTokenName overrides the header the token travels in.
func WithTokenName(name string) Option {
	return func(client *Client) {
		client.tokenName = name
	}
}

// NewClient creates a new tokengate API client.
//
// Parameters:
//   - baseURL: The API base URL (e.g., "https://auth.example.com")
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		tokenName: "tokengate",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs the credential presented on subsequent calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the credential currently presented by this client.
func (c *Client) Token() string {
	return c.token
}

// Login creates a login session and remembers the minted token.
func (c *Client) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	var result LoginResult
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/login", req, &result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	c.token = result.Token
	return &result, nil
}

// Logout ends the session behind the remembered token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.token = ""
	return nil
}

// TokenInfo reports the lifecycle facts of the remembered token.
func (c *Client) TokenInfo(ctx context.Context) (*TokenInfo, error) {
	var info TokenInfo
	if err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/api/v1/auth/token", nil, &info); err != nil {
		return nil, fmt.Errorf("token info: %w", err)
	}
	return &info, nil
}

// Renew extends the remembered token's TTL to ttl seconds.
func (c *Client) Renew(ctx context.Context, ttl int64) error {
	body := map[string]any{"timeout": ttl}
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/renew", body, nil); err != nil {
		return fmt.Errorf("renew: %w", err)
	}
	return nil
}

// OpenSafe marks the remembered token step-up verified for service.
func (c *Client) OpenSafe(ctx context.Context, service string, ttl int64) error {
	body := map[string]any{"service": service, "ttl": ttl}
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/safe", body, nil); err != nil {
		return fmt.Errorf("open safe: %w", err)
	}
	return nil
}

// CloseSafe drops the step-up marker for service.
func (c *Client) CloseSafe(ctx context.Context, service string) error {
	u := c.baseURL + "/api/v1/auth/safe?service=" + url.QueryEscape(service)
	if err := c.doRequest(ctx, http.MethodDelete, u, nil, nil); err != nil {
		return fmt.Errorf("close safe: %w", err)
	}
	return nil
}

// SafeStatus reports the step-up state for service.
func (c *Client) SafeStatus(ctx context.Context, service string) (*SafeStatus, error) {
	u := c.baseURL + "/api/v1/auth/safe?service=" + url.QueryEscape(service)

	var status SafeStatus
	if err := c.doRequest(ctx, http.MethodGet, u, nil, &status); err != nil {
		return nil, fmt.Errorf("safe status: %w", err)
	}
	return &status, nil
}

// Kickout force-terminates an account's logins. Requires an admin token.
func (c *Client) Kickout(ctx context.Context, loginID, deviceType string) error {
	body := map[string]any{"login_id": loginID, "device_type": deviceType}
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/v1/admin/kickout", body, nil); err != nil {
		return fmt.Errorf("kickout: %w", err)
	}
	return nil
}

// Terminals lists an account's live terminals. Requires an admin token.
func (c *Client) Terminals(ctx context.Context, loginID string) (*TerminalList, error) {
	u := c.baseURL + "/api/v1/admin/accounts/" + url.PathEscape(loginID) + "/terminals"

	var list TerminalList
	if err := c.doRequest(ctx, http.MethodGet, u, nil, &list); err != nil {
		return nil, fmt.Errorf("terminals: %w", err)
	}
	return &list, nil
}

// Disable bans an account from a service. Requires an admin token.
func (c *Client) Disable(ctx context.Context, req *DisableRequest) error {
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/v1/admin/disable", req, nil); err != nil {
		return fmt.Errorf("disable: %w", err)
	}
	return nil
}

// UntieDisable lifts a ban. Requires an admin token.
func (c *Client) UntieDisable(ctx context.Context, loginID, service string) error {
	body := map[string]any{"login_id": loginID, "service": service}
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/v1/admin/untie-disable", body, nil); err != nil {
		return fmt.Errorf("untie disable: %w", err)
	}
	return nil
}

// DisableStatus reports the ban level and remaining time for an account.
// Requires an admin token.
func (c *Client) DisableStatus(ctx context.Context, loginID, service string) (*DisableStatus, error) {
	u := c.baseURL + "/api/v1/admin/accounts/" + url.PathEscape(loginID) +
		"/disable?service=" + url.QueryEscape(service)

	var status DisableStatus
	if err := c.doRequest(ctx, http.MethodGet, u, nil, &status); err != nil {
		return nil, fmt.Errorf("disable status: %w", err)
	}
	return &status, nil
}

// SearchTokens enumerates live token values. Requires an admin token.
func (c *Client) SearchTokens(ctx context.Context, keyword string, start, size int) ([]string, error) {
	u := c.baseURL + "/api/v1/admin/tokens?keyword=" + url.QueryEscape(keyword) +
		"&start=" + strconv.Itoa(start) + "&size=" + strconv.Itoa(size)

	var result struct {
		Tokens []string `json:"tokens"`
	}
	if err := c.doRequest(ctx, http.MethodGet, u, nil, &result); err != nil {
		return nil, fmt.Errorf("search tokens: %w", err)
	}
	return result.Tokens, nil
}

// doRequest performs an HTTP request and decodes the response.
func (c *Client) doRequest(ctx context.Context, method, url string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set(c.tokenName, c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("api error: status=%d body=%s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if !apiResp.Success {
		apiErr := &APIError{Status: resp.StatusCode}
		if apiResp.Error != nil {
			apiErr.Type = apiResp.Error.Type
			apiErr.Code = apiResp.Error.Code
			apiErr.Message = apiResp.Error.Message
		}
		return apiErr
	}

	if result == nil || apiResp.Data == nil {
		return nil
	}

	// Re-marshal and unmarshal to convert Data to the target type
	dataBytes, err := json.Marshal(apiResp.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	if err := json.Unmarshal(dataBytes, result); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}

	return nil
}
