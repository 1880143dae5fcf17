package utils

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "sessionId"

// ErrInvalidSession is returned for tokens that fail verification
var ErrInvalidSession = errors.New("invalid session token")

// SessionCodec issues and verifies session cookie values.
// A value is an HS256 token whose subject is the session ID.
type SessionCodec struct {
	key    []byte
	maxAge time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionCodec derives the signing key from secret
func NewSessionCodec(secret string, maxAge time.Duration, secure bool) (*SessionCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is empty")
	}
	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &SessionCodec{key: key, maxAge: maxAge, secure: secure, now: time.Now}, nil
}

func deriveKey(secret string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("daily-diet session cookie"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	return key, nil
}

// NewSessionID generates a fresh session identifier
func NewSessionID() string {
	return uuid.NewString()
}

// Encode signs a session ID into a cookie value
func (c *SessionCodec) Encode(sessionID string) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
	})
	value, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return value, nil
}

// Decode verifies a cookie value and returns the session ID
func (c *SessionCodec) Decode(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims,
		func(*jwt.Token) (interface{}, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", fmt.Errorf("%w: subject is not a session id", ErrInvalidSession)
	}
	return claims.Subject, nil
}

// Cookie builds the sessionId cookie for a signed value
func (c *SessionCodec) Cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.maxAge / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest returns the verified session ID carried by r
func (c *SessionCodec) FromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", fmt.Errorf("%w: cookie missing", ErrInvalidSession)
	}
	return c.Decode(cookie.Value)
}
