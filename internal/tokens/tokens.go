// Package tokens issues and verifies the two classes of signed bearer
// tokens the service uses: short-lived access tokens and longer-lived
// refresh tokens. Each class has its own HMAC key, so a token of one class
// never verifies as the other. Tokens are self-contained; nothing is stored
// server-side.
package tokens

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Cookie names the tokens travel in.
const (
	AccessCookie  = "Access-Token"
	RefreshCookie = "Refresh-Token"
)

// Validation failures keep their class so the auth filter can log what went
// wrong even though it treats all of them as "unauthenticated".
var (
	ErrMalformed    = errors.New("tokens: malformed token")
	ErrBadSignature = errors.New("tokens: signature mismatch")
	ErrExpired      = errors.New("tokens: token expired")
)

type Service struct {
	accessKey  []byte
	refreshKey []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewService decodes the two base64 key phrases from configuration. The
// phrases must be distinct keys; sharing one would collapse the access and
// refresh classes into each other.
func NewService(accessPhrase, refreshPhrase string) (*Service, error) {
	accessKey, err := base64.StdEncoding.DecodeString(accessPhrase)
	if err != nil {
		return nil, fmt.Errorf("tokens: decode access phrase: %w", err)
	}
	refreshKey, err := base64.StdEncoding.DecodeString(refreshPhrase)
	if err != nil {
		return nil, fmt.Errorf("tokens: decode refresh phrase: %w", err)
	}
	return &Service{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		AccessTTL:  24 * time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}, nil
}

func (s *Service) IssueAccess(subject string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.AccessTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessKey)
}

func (s *Service) IssueRefresh(subject string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.RefreshTTL)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshKey)
}

// CheckAccess verifies signature and expiry against the access key. The
// returned error is always one of ErrMalformed, ErrBadSignature, ErrExpired.
func (s *Service) CheckAccess(raw string) error {
	_, err := parse(raw, s.accessKey)
	return err
}

func (s *Service) CheckRefresh(raw string) error {
	_, err := parse(raw, s.refreshKey)
	return err
}

// AccessClaims parses the claims payload with the access key. Callers are
// expected to have validated the token first; an invalid token errors here
// too.
func (s *Service) AccessClaims(raw string) (*jwt.RegisteredClaims, error) {
	return parse(raw, s.accessKey)
}

func (s *Service) RefreshClaims(raw string) (*jwt.RegisteredClaims, error) {
	return parse(raw, s.refreshKey)
}

func parse(raw string, key []byte) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrBadSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	case !tkn.Valid:
		return nil, ErrBadSignature
	}
	return &claims, nil
}

// FromRequest scans the request's cookies for an exact name match and
// returns the first match's value.
func FromRequest(r *http.Request, name string) (string, bool) {
	for _, ck := range r.Cookies() {
		if ck.Name == name {
			return ck.Value, true
		}
	}
	return "", false
}
