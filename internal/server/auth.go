package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// TokenAuth guards the controller endpoint with a shared token. An empty
// token lets everyone in.
type TokenAuth struct {
	token string
}

func NewTokenAuth(token string) *TokenAuth {
	return &TokenAuth{token: token}
}

func (a *TokenAuth) Name() string {
	return "TokenAuth"
}

// Authorize accepts the token from the query string or a bearer header.
func (a *TokenAuth) Authorize(r *http.Request) error {
	if a == nil || a.token == "" {
		return nil
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
