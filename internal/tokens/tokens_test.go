package tokens

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phrase(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(phrase("test-access-secret-0123456789"), phrase("test-refresh-secret-0123456789"))
	require.NoError(t, err)
	return svc
}

func TestNewService_BadPhrase(t *testing.T) {
	t.Parallel()

	_, err := NewService("%%% not base64 %%%", phrase("ok"))
	require.Error(t, err)

	_, err = NewService(phrase("ok"), "%%% not base64 %%%")
	require.Error(t, err)
}

func TestIssueAccess_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	token, err := svc.IssueAccess("alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, svc.CheckAccess(token))

	claims, err := svc.AccessClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestIssueRefresh_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	token, err := svc.IssueRefresh("alice@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.CheckRefresh(token))

	claims, err := svc.RefreshClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestCrossValidation_AlwaysFails(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	access, err := svc.IssueAccess("alice@example.com")
	require.NoError(t, err)
	refresh, err := svc.IssueRefresh("alice@example.com")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CheckRefresh(access), ErrBadSignature)
	assert.ErrorIs(t, svc.CheckAccess(refresh), ErrBadSignature)

	_, err = svc.RefreshClaims(access)
	assert.ErrorIs(t, err, ErrBadSignature)
	_, err = svc.AccessClaims(refresh)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestCheckAccess_Expired(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	svc.AccessTTL = -time.Minute

	token, err := svc.IssueAccess("alice@example.com")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CheckAccess(token), ErrExpired)
}

func TestCheckAccess_Malformed(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not-a-jwt"},
		{name: "two parts", raw: "aaaa.bbbb"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, svc.CheckAccess(tt.raw), ErrMalformed)
		})
	}
}

func TestCheckAccess_TamperedSignature(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	other, err := NewService(phrase("a-completely-different-key-12345"), phrase("another-different-key-1234567"))
	require.NoError(t, err)

	token, err := other.IssueAccess("alice@example.com")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CheckAccess(token), ErrBadSignature)
}

func TestFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cookies   []*http.Cookie
		wantValue string
		wantOK    bool
	}{
		{
			name: "no cookies",
		},
		{
			name:    "only other cookies",
			cookies: []*http.Cookie{{Name: "session", Value: "x"}, {Name: "theme", Value: "dark"}},
		},
		{
			name:      "exact match among others",
			cookies:   []*http.Cookie{{Name: "session", Value: "x"}, {Name: AccessCookie, Value: "tok-123"}},
			wantValue: "tok-123",
			wantOK:    true,
		},
		{
			name:      "first match wins",
			cookies:   []*http.Cookie{{Name: AccessCookie, Value: "first"}, {Name: AccessCookie, Value: "second"}},
			wantValue: "first",
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, ck := range tt.cookies {
				req.AddCookie(ck)
			}

			value, ok := FromRequest(req, AccessCookie)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}
