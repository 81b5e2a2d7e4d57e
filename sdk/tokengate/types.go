package tokengate

import "fmt"

// apiResponse is the server's standard envelope.
type apiResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorInfo `json:"error,omitempty"`
	Message string     `json:"message,omitempty"`
}

type errorInfo struct {
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError is a non-success answer from the server, carrying the stable
// numeric reason code alongside the HTTP status.
type APIError struct {
	Status  int
	Type    string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d type=%s code=%d message=%s", e.Status, e.Type, e.Code, e.Message)
}

// NotLoggedIn reports whether err is the server rejecting the credential,
// with the reason code when it is.
func NotLoggedIn(err error) (int, bool) {
	if apiErr, ok := err.(*APIError); ok && apiErr.Type == "not_logged_in" {
		return apiErr.Code, true
	}
	return 0, false
}

// LoginRequest asks the server to mint a credential for an account.
type LoginRequest struct {
	LoginID    string `json:"login_id"`
	DeviceType string `json:"device_type,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
	Timeout    int64  `json:"timeout,omitempty"`
}

// LoginResult is the minted credential.
type LoginResult struct {
	Token     string `json:"token"`
	TokenName string `json:"token_name"`
	LoginID   string `json:"login_id"`
	Timeout   int64  `json:"timeout"`
}

// TokenInfo reports a token's lifecycle facts.
type TokenInfo struct {
	LoginID    string `json:"login_id"`
	LoginType  string `json:"login_type"`
	TokenName  string `json:"token_name"`
	Timeout    int64  `json:"timeout"`
	LastActive int64  `json:"last_active"`
}

// SafeStatus reports step-up state for one service.
type SafeStatus struct {
	Service   string `json:"service"`
	Safe      bool   `json:"safe"`
	Remaining int64  `json:"remaining"`
}

// Terminal is one live login of an account.
type Terminal struct {
	Index      int64          `json:"index"`
	DeviceType string         `json:"device_type"`
	DeviceID   string         `json:"device_id,omitempty"`
	Token      string         `json:"token"`
	CreateTime int64          `json:"create_time"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// TerminalList is an account's live terminals.
type TerminalList struct {
	LoginID   string     `json:"login_id"`
	Terminals []Terminal `json:"terminals"`
}

// DisableRequest bans an account from a service.
type DisableRequest struct {
	LoginID string `json:"login_id"`
	Service string `json:"service,omitempty"`
	Level   int    `json:"level,omitempty"`
	TTL     int64  `json:"ttl"`
}

// DisableStatus reports an account's ban level for one service.
type DisableStatus struct {
	LoginID   string `json:"login_id"`
	Service   string `json:"service"`
	Level     int    `json:"level"`
	Remaining int64  `json:"remaining"`
}
