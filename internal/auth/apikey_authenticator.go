package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// APIKeyAuthenticator validates the X-API-Key header against a configured
// key set. Requests without a key pass through as anonymous; only a key
// that is present but unknown is rejected. Keys are held as sha256 digests
// so the raw values never sit in memory longer than one comparison.
type APIKeyAuthenticator struct {
	hashedKeys map[string]struct{}
}

func NewAPIKeyAuthenticator(keys string) (*APIKeyAuthenticator, error) {
	hashed := make(map[string]struct{})
	for _, key := range strings.Split(keys, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		hashed[hashKey(key)] = struct{}{}
	}
	zap.S().Named("auth").Infof("api key authentication with %d key(s)", len(hashed))
	return &APIKeyAuthenticator{hashedKeys: hashed}, nil
}

func (a *APIKeyAuthenticator) Authenticate(apiKey string) bool {
	digest := hashKey(apiKey)
	for known := range a.hashedKeys {
		if subtle.ConstantTimeCompare([]byte(digest), []byte(known)) == 1 {
			return true
		}
	}
	return false
}

func (a *APIKeyAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			ctx := NewTokenContext(r.Context(), User{Username: "anonymous"})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if !a.Authenticate(apiKey) {
			zap.S().Named("auth").Warnw("invalid api key", "remote_addr", r.RemoteAddr)
			http.Error(w, "invalid API key", http.StatusUnauthorized)
			return
		}

		user := User{
			Username: "api-key-user",
			APIKey:   apiKey,
		}
		ctx := NewTokenContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func hashKey(key string) string {
	digest := sha256.Sum256([]byte(key))
	return hex.EncodeToString(digest[:])
}
