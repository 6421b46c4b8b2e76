// Package token issues the opaque bearer tokens behind signing and speaker links.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

// Role binds a token to the single operation family it authorizes.
type Role string

const (
	RoleClient       Role = "client"
	RoleSpeaker      Role = "speaker"
	RoleAdminPreview Role = "admin_preview"
	RoleSpeakerOffer Role = "speaker_offer"
)

const (
	alphabet      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	MinLength     = 32
	DefaultLength = 48
)

// Issuer generates opaque bearer tokens. Key signs derived link tokens.
type Issuer struct {
	Length int
	Key    []byte
}

func NewIssuer(key string) *Issuer {
	return &Issuer{Length: DefaultLength, Key: []byte(key)}
}

func (i *Issuer) length() int {
	return max(i.Length, MinLength)
}

// Issue returns a random alphanumeric token of at least MinLength characters.
func (i *Issuer) Issue() (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, i.length())
	for k := range out {
		num, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("token: read random: %w", err)
		}
		out[k] = alphabet[num.Int64()]
	}
	return string(out), nil
}

// IssueSet returns n mutually distinct tokens.
func (i *Issuer) IssueSet(n int) ([]string, error) {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for attempts := 0; len(out) < n; attempts++ {
		if attempts > n*4 {
			return nil, errors.New("token: could not issue distinct tokens")
		}
		t, err := i.Issue()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// Derive returns the link token for role and seed. Equal inputs give equal tokens, so a
// link can be sent again later while only the seed and the token hash are stored.
// Without the key the token cannot be computed from the seed.
func (i *Issuer) Derive(role Role, seed string) (string, error) {
	if len(i.Key) == 0 {
		return "", errors.New("token: derive needs a key")
	}
	if seed == "" {
		return "", errors.New("token: derive needs a seed")
	}
	n := i.length()
	out := make([]byte, 0, n)
	for block := byte(0); len(out) < n; block++ {
		mac := hmac.New(sha256.New, i.Key)
		mac.Write([]byte(role))
		mac.Write([]byte{0})
		mac.Write([]byte(seed))
		mac.Write([]byte{block})
		for _, b := range mac.Sum(nil) {
			// 248 is the largest multiple of 62 below 256
			if b >= 248 {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// Hash is the stored form of a token. Plaintext never reaches the database.
func Hash(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

// Equal compares two hashes in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Valid is a cheap shape check before any database lookup.
func Valid(raw string) bool {
	if len(raw) < MinLength || len(raw) > 256 {
		return false
	}
	for k := 0; k < len(raw); k++ {
		c := raw[k]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
