// Package auth verifies bearer credentials presented by clients.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when no credential was presented.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken is returned for bad signatures, expired tokens or missing subjects.
	ErrInvalidToken = errors.New("invalid token")
)

// SubprotocolPrefix marks a websocket subprotocol carrying the bearer token.
const SubprotocolPrefix = "bearer."

// Claims represents JWT claims. The subject is the account identity.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Verifier validates HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify checks signature and expiry and returns the identity in the token.
func (v *Verifier) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// TokenFromRequest extracts a bearer token from the Authorization header,
// the token query parameter or a "bearer.<token>" websocket subprotocol.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	return strings.TrimPrefix(TokenSubprotocol(r), SubprotocolPrefix)
}

func websocketProtocols(r *http.Request) []string {
	var protocols []string
	for _, value := range r.Header.Values("Sec-WebSocket-Protocol") {
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				protocols = append(protocols, p)
			}
		}
	}
	return protocols
}

// TokenSubprotocol returns the "bearer.<token>" subprotocol offered by the
// client, if any. The server must echo it for browsers to accept the upgrade.
func TokenSubprotocol(r *http.Request) string {
	for _, protocol := range websocketProtocols(r) {
		if strings.HasPrefix(protocol, SubprotocolPrefix) {
			return protocol
		}
	}
	return ""
}
