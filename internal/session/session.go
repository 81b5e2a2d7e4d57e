// Package session holds the generic TTL-bound key/value "bag" entity used for
// both account-scoped and token-scoped sessions, plus the repository that
// persists it through the storage contract.
//
// A Session instance is a snapshot loaded from the store. It has no internal
// locking; callers that mutate the same account session concurrently must
// serialize (the authority engine does this with per-account locks).
package session

import (
	"context"
	"math"
	"time"
)

// Type tags who owns a session.
type Type string

const (
	TypeAccount Type = "account"
	TypeToken   Type = "token"
	TypeAnon    Type = "anon"
	TypeCustom  Type = "custom"
)

// Terminal is one logged-in client instance inside an account session.
type Terminal struct {
	// Index is the ordinal the terminal got when it logged in; it keeps
	// growing over the session's lifetime and is never reused.
	Index      int64          `json:"index"`
	DeviceType string         `json:"device_type"`
	DeviceID   string         `json:"device_id,omitempty"`
	Token      string         `json:"token"`
	CreateTime int64          `json:"create_time"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// ExtraValue reads one entry of the terminal's extra data.
func (t *Terminal) ExtraValue(key string) (any, bool) {
	if t.Extra == nil {
		return nil, false
	}
	v, ok := t.Extra[key]
	return v, ok
}

// Session is identified by its store key. Every mutation that must be visible
// to other processes goes back through the repository; the model itself has
// no independent durability.
type Session struct {
	ID         string `json:"id"`
	Type       Type   `json:"type"`
	LoginID    string `json:"login_id,omitempty"`
	Token      string `json:"token,omitempty"`
	CreateTime int64  `json:"create_time"`

	Data map[string]any `json:"data,omitempty"`

	// Terminals and TerminalCount are only used by account sessions.
	// TerminalCount counts every terminal the session ever had, not the
	// currently live ones.
	Terminals     []*Terminal `json:"terminals,omitempty"`
	TerminalCount int64       `json:"terminal_count,omitempty"`

	repo *Repository
}

// New creates an unpersisted session. The caller persists it through the
// repository once it is populated.
func New(id string, typ Type) *Session {
	return &Session{
		ID:         id,
		Type:       typ,
		CreateTime: time.Now().UnixMilli(),
		Data:       make(map[string]any),
	}
}

// bind attaches the repository after a load or create so the mutation helpers
// can persist.
func (s *Session) bind(repo *Repository) *Session {
	s.repo = repo
	return s
}

// Update writes the current state back to the store.
func (s *Session) Update(ctx context.Context) error {
	return s.repo.UpdateSession(ctx, s)
}

// Get reads one entry of the session's data map.
func (s *Session) Get(key string) (any, bool) {
	v, ok := s.Data[key]
	return v, ok
}

// GetString reads one entry as a string, returning "" for absent or non-string values.
func (s *Session) GetString(key string) string {
	if v, ok := s.Data[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// Set writes one entry and persists.
func (s *Session) Set(ctx context.Context, key string, value any) error {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
	return s.Update(ctx)
}

// Delete removes one entry and persists.
func (s *Session) Delete(ctx context.Context, key string) error {
	delete(s.Data, key)
	return s.Update(ctx)
}

// AddTerminal appends a terminal record, deduplicating by token, and persists.
// The terminal receives the next historical ordinal.
func (s *Session) AddTerminal(ctx context.Context, t *Terminal) error {
	for _, existing := range s.Terminals {
		if existing.Token == t.Token {
			return s.Update(ctx)
		}
	}
	s.TerminalCount++
	t.Index = s.TerminalCount
	if t.CreateTime == 0 {
		t.CreateTime = time.Now().UnixMilli()
	}
	s.Terminals = append(s.Terminals, t)
	return s.Update(ctx)
}

// RemoveTerminal removes the terminal carrying token and persists. It returns
// the removed terminal, or nil when no terminal matched. Deleting the session
// once the list is empty is the caller's responsibility.
func (s *Session) RemoveTerminal(ctx context.Context, token string) (*Terminal, error) {
	for i, t := range s.Terminals {
		if t.Token == token {
			s.Terminals = append(s.Terminals[:i], s.Terminals[i+1:]...)
			return t, s.Update(ctx)
		}
	}
	return nil, nil
}

// Terminal returns the terminal carrying token, or nil.
func (s *Session) Terminal(token string) *Terminal {
	for _, t := range s.Terminals {
		if t.Token == token {
			return t
		}
	}
	return nil
}

// TerminalsByDevice returns the terminals for one device type; "" selects all.
func (s *Session) TerminalsByDevice(deviceType string) []*Terminal {
	out := make([]*Terminal, 0, len(s.Terminals))
	for _, t := range s.Terminals {
		if deviceType == "" || t.DeviceType == deviceType {
			out = append(out, t)
		}
	}
	return out
}

// TokenValues returns the tokens of the terminals for one device type; "" selects all.
func (s *Session) TokenValues(deviceType string) []string {
	terminals := s.TerminalsByDevice(deviceType)
	out := make([]string, 0, len(terminals))
	for _, t := range terminals {
		out = append(out, t.Token)
	}
	return out
}

// Timeout returns the session's remaining TTL in seconds.
func (s *Session) Timeout(ctx context.Context) (int64, error) {
	return s.repo.GetSessionTimeout(ctx, s.ID)
}

// UpdateTimeout replaces the session's TTL.
func (s *Session) UpdateTimeout(ctx context.Context, ttl int64) error {
	return s.repo.UpdateSessionTimeout(ctx, s.ID, ttl)
}

// UpdateMinTimeout shrinks the TTL to ttl only when the current TTL is
// larger. Never-expire counts as infinitely large.
func (s *Session) UpdateMinTimeout(ctx context.Context, ttl int64) error {
	cur, err := s.Timeout(ctx)
	if err != nil {
		return err
	}
	if asComparable(cur) > asComparable(ttl) {
		return s.UpdateTimeout(ctx, ttl)
	}
	return nil
}

// UpdateMaxTimeout extends the TTL to ttl only when the current TTL is
// smaller, so a long-lived device never has its time cut by a shorter login.
func (s *Session) UpdateMaxTimeout(ctx context.Context, ttl int64) error {
	cur, err := s.Timeout(ctx)
	if err != nil {
		return err
	}
	if asComparable(cur) < asComparable(ttl) {
		return s.UpdateTimeout(ctx, ttl)
	}
	return nil
}

// asComparable maps never-expire onto the top of the ordering so the min/max
// comparisons treat it as the longest possible TTL.
func asComparable(ttl int64) int64 {
	if ttl == -1 {
		return math.MaxInt64
	}
	return ttl
}
