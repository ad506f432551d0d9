package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func claimsFor(subject string, expiresIn time.Duration) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
}

func TestVerifier_Verify(t *testing.T) {
	verifier := NewVerifier(testSecret)

	tests := []struct {
		name     string
		token    string
		identity string
		wantErr  error
	}{
		{
			name:     "valid token",
			token:    sign(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("U1", time.Hour)),
			identity: "U1",
		},
		{
			name:    "missing token",
			token:   "",
			wantErr: ErrMissingToken,
		},
		{
			name:    "wrong secret",
			token:   sign(t, jwt.SigningMethodHS256, []byte("other"), claimsFor("U1", time.Hour)),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "expired",
			token:   sign(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("U1", -time.Minute)),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "no subject",
			token:   sign(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("", time.Hour)),
			wantErr: ErrInvalidToken,
		},
		{
			name: "no expiry",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "U1"},
			}),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "other algorithm",
			token:   sign(t, jwt.SigningMethodHS512, []byte(testSecret), claimsFor("U1", time.Hour)),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "garbage",
			token:   "not.a.token",
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			identity, err := verifier.Verify(tt.token)
			if tt.wantErr != nil {
				req.ErrorIs(err, tt.wantErr)
				req.Empty(identity)
				return
			}
			req.NoError(err)
			req.Equal(tt.identity, identity)
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	t.Run("authorization header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws?token=query", nil)
		r.Header.Set("Authorization", "Bearer header")
		require.Equal(t, "header", TokenFromRequest(r))
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws?token=query", nil)
		r.Header.Set("Authorization", "Basic abc")
		require.Empty(t, TokenFromRequest(r))
	})

	t.Run("query parameter", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws?token=query", nil)
		require.Equal(t, "query", TokenFromRequest(r))
	})

	t.Run("subprotocol", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws", nil)
		r.Header.Set("Sec-WebSocket-Protocol", "chat, bearer.proto")
		require.Equal(t, "proto", TokenFromRequest(r))
	})

	t.Run("nothing", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws", nil)
		require.Empty(t, TokenFromRequest(r))
	})
}
