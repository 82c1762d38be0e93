package checkin

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const (
	tokenAudience = "check-in"
	keyInfoPrefix = "check-in:"
	iatLeeway     = 30 * time.Second
)

var (
	ErrInvalidToken = errors.New("invalid check-in token")
	ErrTokenExpired = errors.New("check-in token expired")

	errMissingEventID = errors.New("missing event_id claim")
)

// TokenClaims are the claims carried by a check-in token.
type TokenClaims struct {
	jwt.StandardClaims
	EventID string `json:"event_id"`
}

// Signer issues and verifies check-in tokens. Each event gets its own HS256 key,
// derived from the shared secret, so a token can only ever name the event it was signed for.
type Signer struct {
	secret []byte
	issuer string
	scheme string
	now    func() time.Time
}

func NewSigner(secret, issuer, appScheme string) *Signer {
	return &Signer{
		secret: []byte(secret),
		issuer: issuer,
		scheme: appScheme,
		now:    time.Now,
	}
}

func (s *Signer) eventKey(eventID string) ([]byte, error) {
	r := hkdf.New(sha256.New, s.secret, []byte(s.issuer), []byte(keyInfoPrefix+eventID))
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Sign returns a token for eventID valid until expiresAt.
func (s *Signer) Sign(eventID string, expiresAt time.Time) (Token, error) {
	key, err := s.eventKey(eventID)
	if err != nil {
		return Token{}, err
	}
	claims := TokenClaims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    s.issuer,
			Audience:  tokenAudience,
			IssuedAt:  s.now().Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
		EventID: eventID,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return Token{}, fmt.Errorf("signing check-in token: %w", err)
	}
	return Token{
		Token:     ss,
		EventID:   eventID,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(),
		QRPayload: s.QRPayload(ss),
	}, nil
}

// QRPayload is the deep link encoded in the QR code.
func (s *Signer) QRPayload(token string) string {
	v := make(url.Values)
	v.Set("token", token)
	return s.scheme + "://check-in?" + v.Encode()
}

// Verify checks the token signature and claims.
// raw may be the token itself or the QR deep link wrapping it.
func (s *Signer) Verify(raw string) (TokenClaims, error) {
	raw = extractToken(raw)
	if raw == "" {
		return TokenClaims{}, ErrInvalidToken
	}

	var claims TokenClaims
	parser := jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true, // validated below against s.now
	}
	_, err := parser.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		c, ok := token.Claims.(*TokenClaims)
		if !ok || c.EventID == "" {
			return nil, errMissingEventID
		}
		return s.eventKey(c.EventID)
	})
	if err != nil {
		return TokenClaims{}, ErrInvalidToken
	}

	if claims.Issuer != s.issuer || !claims.VerifyAudience(tokenAudience, true) {
		return TokenClaims{}, ErrInvalidToken
	}
	now := s.now()
	if claims.ExpiresAt == 0 || claims.IssuedAt > now.Add(iatLeeway).Unix() {
		return TokenClaims{}, ErrInvalidToken
	}
	if !claims.VerifyExpiresAt(now.Unix(), true) {
		return TokenClaims{}, ErrTokenExpired
	}
	return claims, nil
}

func extractToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("token"))
}
