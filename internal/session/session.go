package session

import (
	"sync"

	"github.com/littlstar/lstar/internal/domain"
)

// Session holds the service endpoint and the signed-in identity.
// Reads are concurrent; writes go through Apply and Logout only.
type Session struct {
	endpoint string

	mu         sync.RWMutex
	token      string
	user       *domain.User
	lastSeq    uint64 // Most recently issued attempt
	appliedSeq uint64 // Attempt whose result is in token/user
}

// New creates an empty session for endpoint
func New(endpoint string) *Session {
	return &Session{endpoint: endpoint}
}

// Endpoint returns the service base URL
func (s *Session) Endpoint() string {
	return s.endpoint
}

// Token returns the bearer token, empty when signed out
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, nil when signed out
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// Authenticated reports whether a token is present
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Begin issues a sequence number for a new sign-in attempt
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeq++
	return s.lastSeq
}

// Apply stores the result of attempt seq unless a later attempt has
// already been applied or a logout happened after seq was issued.
// It reports whether the session changed.
func (s *Session) Apply(seq uint64, user *domain.User, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.appliedSeq {
		return false
	}
	s.appliedSeq = seq
	s.token = token
	s.user = user.Clone()
	return true
}

// Logout clears the identity and fences off every attempt issued so far.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.appliedSeq = s.lastSeq
}
