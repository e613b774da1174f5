package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/synthbed/tts-api/internal/config"
)

type Authenticator interface {
	Authenticator(next http.Handler) http.Handler
}

const (
	APIKeyAuthentication string = "apikey"
	JWTAuthentication    string = "jwt"
	NoneAuthentication   string = "none"
)

func NewAuthenticator(authConfig config.Auth) (Authenticator, error) {
	zap.S().Named("auth").Infof("authentication: '%s'", authConfig.AuthenticationType)

	switch authConfig.AuthenticationType {
	case APIKeyAuthentication:
		return NewAPIKeyAuthenticator(authConfig.APIKeys)
	case JWTAuthentication:
		return NewJWTAuthenticator(authConfig.JWTSecret)
	default:
		return NewNoneAuthenticator()
	}
}
