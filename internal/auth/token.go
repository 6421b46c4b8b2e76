package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTTL is the lifetime of a staff access token.
const AccessTTL = 8 * time.Hour

const issuer = "speaker-booking"

// Claims carries staff identity and a simple RBAC flag.
type Claims struct {
	StaffID uint   `json:"staff_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Signer issues and validates HS256 staff tokens.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// GenerateAccessToken signs a token for a staff member.
func (s *Signer) GenerateAccessToken(staffID uint, email string, isAdmin bool) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("auth: signing secret is empty")
	}
	now := s.now()
	claims := &Claims{
		StaffID: staffID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(staffID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTTL)),
			ID:        fmt.Sprintf("%d-%d", staffID, now.UnixNano()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseAndValidate checks signature, method, issuer and expiry.
func (s *Signer) ParseAndValidate(raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	tok, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("auth: invalid claims")
	}
	return c, nil
}
