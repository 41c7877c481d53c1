package triggers

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingBearerToken indicates the request carried no Authorization
// header at all.
var ErrMissingBearerToken = errors.New("triggers: missing bearer token")

// ErrInvalidBearerToken indicates the bearer token failed signature or
// expiry validation.
var ErrInvalidBearerToken = errors.New("triggers: invalid bearer token")

// WebhookAuthenticator validates the bearer token a webhook delivery
// carries, the same HS256 scheme internal/auth.JWTService issues for
// user sessions, scoped here to a single secret per webhook endpoint.
type WebhookAuthenticator struct {
	secret []byte
}

// NewWebhookAuthenticator builds an authenticator for a given signing
// secret.
func NewWebhookAuthenticator(secret []byte) *WebhookAuthenticator {
	return &WebhookAuthenticator{secret: secret}
}

// Authenticate extracts and validates the bearer token from a webhook
// request's Authorization header.
func (a *WebhookAuthenticator) Authenticate(req WebhookRequest) error {
	values := req.Headers["Authorization"]
	if len(values) == 0 {
		return ErrMissingBearerToken
	}
	token := strings.TrimPrefix(values[0], "Bearer ")
	if token == values[0] {
		return ErrMissingBearerToken
	}

	_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidBearerToken
		}
		return a.secret, nil
	})
	if err != nil {
		return ErrInvalidBearerToken
	}
	return nil
}
