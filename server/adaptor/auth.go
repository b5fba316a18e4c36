package adaptor

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ponyo877/lanshare/wire"
	"go.uber.org/zap"
)

const tokenCookie = "lanshare_token"

// maxTokens bounds the tokens kept for the access code.
const maxTokens = 1024

// tokenStore holds the tokens issued for the access code. Once limit tokens
// exist, issuing another forgets the oldest.
type tokenStore struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
	order  []string
	limit  int
}

func newTokenStore(limit int) *tokenStore {
	return &tokenStore{tokens: make(map[string]struct{}), limit: limit}
}

func (s *tokenStore) issue() string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.limit > 0 && len(s.order) >= s.limit {
		delete(s.tokens, s.order[0])
		s.order = s.order[1:]
	}
	s.tokens[token] = struct{}{}
	s.order = append(s.order, token)
	return token
}

func (s *tokenStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

func (s *tokenStore) valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[token]
	return ok
}

func requestToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie(tokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// requireToken is a no-op when no access code is configured.
func (a *Adaptor) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.opts.AccessCode == "" || a.tokens.valid(requestToken(r)) {
			next.ServeHTTP(w, r)
			return
		}
		a.writeJSON(w, http.StatusUnauthorized, wire.AuthResponse{Success: false, Message: "access code required"})
	})
}

func (a *Adaptor) handleAuth(w http.ResponseWriter, r *http.Request) {
	if a.opts.AccessCode == "" {
		a.writeJSON(w, http.StatusOK, wire.AuthResponse{Success: true, Message: "no access code required"})
		return
	}

	var req wire.AuthRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, wire.AuthResponse{Success: false, Message: "invalid request body"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Code), []byte(a.opts.AccessCode)) != 1 {
		a.logger.Info("Rejected access code", zap.String("remote", r.RemoteAddr))
		a.writeJSON(w, http.StatusUnauthorized, wire.AuthResponse{Success: false, Message: "invalid access code"})
		return
	}

	// A client that is already authorized keeps its token.
	token := requestToken(r)
	if !a.tokens.valid(token) {
		token = a.tokens.issue()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	a.writeJSON(w, http.StatusOK, wire.AuthResponse{Success: true, Message: "authenticated", Token: token})
}
