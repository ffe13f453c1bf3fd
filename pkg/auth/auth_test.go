package auth_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/addrsplit/pkg/auth"
)

const issuer = "https://idp.example.test/pool"

func signToken(t *testing.T, key *rsa.PrivateKey, claims map[string]any) string {
	t.Helper()

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	jws, err := signer.Sign(payload)
	require.NoError(t, err)

	raw, err := jws.CompactSerialize()
	require.NoError(t, err)
	return raw
}

func newVerifier(t *testing.T, cfg *auth.Config) (auth.Verifier, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keys := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	return auth.NewKeySetVerifier(cfg, keys), key
}

func TestVerifierSubject(t *testing.T) {
	v, key := newVerifier(t, &auth.Config{Issuer: issuer})
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr error
	}{
		{
			name:  "valid token",
			token: signToken(t, key, map[string]any{"iss": issuer, "sub": "user-a", "exp": future}),
			want:  "user-a",
		},
		{
			name:    "wrong issuer",
			token:   signToken(t, key, map[string]any{"iss": "https://evil.test", "sub": "user-a", "exp": future}),
			wantErr: auth.ErrInvalidToken,
		},
		{
			name:    "expired",
			token:   signToken(t, key, map[string]any{"iss": issuer, "sub": "user-a", "exp": time.Now().Add(-time.Hour).Unix()}),
			wantErr: auth.ErrInvalidToken,
		},
		{
			name:    "foreign key",
			token:   signToken(t, other, map[string]any{"iss": issuer, "sub": "user-a", "exp": future}),
			wantErr: auth.ErrInvalidToken,
		},
		{
			name:    "missing subject",
			token:   signToken(t, key, map[string]any{"iss": issuer, "exp": future}),
			wantErr: auth.ErrNoSubject,
		},
		{
			name:    "garbage",
			token:   "not.a.jwt",
			wantErr: auth.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Subject(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifierAudienceCheck(t *testing.T) {
	v, key := newVerifier(t, &auth.Config{Issuer: issuer, ClientID: "addrsplit-web", AudienceCheck: true})
	future := time.Now().Add(time.Hour).Unix()

	_, err := v.Subject(context.Background(), signToken(t, key, map[string]any{
		"iss": issuer, "sub": "user-a", "aud": "someone-else", "exp": future,
	}))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	sub, err := v.Subject(context.Background(), signToken(t, key, map[string]any{
		"iss": issuer, "sub": "user-a", "aud": "addrsplit-web", "exp": future,
	}))
	require.NoError(t, err)
	assert.Equal(t, "user-a", sub)
}

type stubVerifier struct {
	subject string
	err     error
}

func (s stubVerifier) Subject(context.Context, string) (string, error) {
	return s.subject, s.err
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		verifier   auth.Verifier
		wantStatus int
		wantUser   string
	}{
		{"no header", "", stubVerifier{subject: "u"}, http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", stubVerifier{subject: "u"}, http.StatusUnauthorized, ""},
		{"empty bearer", "Bearer ", stubVerifier{subject: "u"}, http.StatusUnauthorized, ""},
		{"rejected token", "Bearer abc", stubVerifier{err: auth.ErrInvalidToken}, http.StatusUnauthorized, ""},
		{"accepted token", "Bearer abc", stubVerifier{subject: "user-a"}, http.StatusOK, "user-a"},
		{"lowercase scheme", "bearer abc", stubVerifier{subject: "user-b"}, http.StatusOK, "user-b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = auth.UserID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := auth.Middleware(tt.verifier, slog.Default())(next)
			req := httptest.NewRequest(http.MethodGet, "/recent", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, gotUser)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestDevVerifier(t *testing.T) {
	sub, err := auth.NewDevVerifier("local").Subject(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "local", sub)
}

func TestMapHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, auth.MapHTTPStatus(auth.ErrMissingToken))
	assert.Equal(t, http.StatusUnauthorized, auth.MapHTTPStatus(auth.ErrInvalidToken))
	assert.Equal(t, http.StatusInternalServerError, auth.MapHTTPStatus(errors.New("boom")))
}
