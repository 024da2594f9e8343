package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid is returned for malformed or tampered tokens.
	ErrTokenInvalid = errors.New("storage: invalid download token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("storage: download token expired")
)

// Claims is the content of a download token.
type Claims struct {
	Subject   string
	Path      string
	ExpiresAt time.Time
}

// Signer issues HMAC-SHA256 download tokens of the form
// subject.expiry.base64(path).signature.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a signer. A non-positive ttl defaults to 24h.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token granting access to path on behalf of subject.
func (s *Signer) Sign(subject, path string) (string, Claims, error) {
	if subject == "" || path == "" || strings.Contains(subject, ".") {
		return "", Claims{}, fmt.Errorf("sign: subject and path required")
	}
	if len(s.secret) == 0 {
		return "", Claims{}, fmt.Errorf("sign: secret missing")
	}
	claims := Claims{Subject: subject, Path: path, ExpiresAt: s.now().Add(s.ttl).Truncate(time.Second)}
	body := strings.Join([]string{
		subject,
		strconv.FormatInt(claims.ExpiresAt.Unix(), 10),
		base64.RawURLEncoding.EncodeToString([]byte(path)),
	}, ".")
	return body + "." + s.mac(body), claims, nil
}

// Verify checks the signature of token and, unless allowExpired, its expiry.
func (s *Signer) Verify(token string, allowExpired bool) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return Claims{}, ErrTokenInvalid
	}
	body := strings.Join(parts[:3], ".")
	if !hmac.Equal([]byte(s.mac(body)), []byte(parts[3])) {
		return Claims{}, ErrTokenInvalid
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}
	path, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}
	claims := Claims{Subject: parts[0], Path: string(path), ExpiresAt: time.Unix(exp, 0)}
	if !allowExpired && s.now().After(claims.ExpiresAt) {
		return claims, ErrTokenExpired
	}
	return claims, nil
}

func (s *Signer) mac(body string) string {
	m := hmac.New(sha256.New, s.secret)
	_, _ = m.Write([]byte(body))
	return hex.EncodeToString(m.Sum(nil))
}
