package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueLengthAndAlphabet(t *testing.T) {
	iss := NewIssuer("k")
	tok, err := iss.Issue()
	require.NoError(t, err)

	assert.Len(t, tok, DefaultLength)
	assert.True(t, Valid(tok))
}

func TestIssueEnforcesMinimumLength(t *testing.T) {
	iss := &Issuer{Length: 8}
	tok, err := iss.Issue()
	require.NoError(t, err)
	assert.Len(t, tok, MinLength)
}

func TestIssueSetIsDistinct(t *testing.T) {
	toks, err := NewIssuer("k").IssueSet(3)
	require.NoError(t, err)
	require.Len(t, toks, 3)

	assert.NotEqual(t, toks[0], toks[1])
	assert.NotEqual(t, toks[1], toks[2])
	assert.NotEqual(t, toks[0], toks[2])
}

func TestHashIsStableAndHidesPlaintext(t *testing.T) {
	raw := "abcDEF0123456789abcDEF0123456789xyz"
	h1 := Hash(raw)

	assert.Equal(t, h1, Hash(raw))
	assert.NotContains(t, h1, raw)
	assert.True(t, Equal(h1, Hash(raw)))
	assert.False(t, Equal(h1, Hash(raw+"x")))
}

func TestValidRejectsMalformed(t *testing.T) {
	assert.False(t, Valid("short"))
	assert.False(t, Valid("this-has-dashes-and-is-definitely-long-enough"))
	assert.False(t, Valid(""))
}

func TestDeriveIsStableAndBoundToRoleAndKey(t *testing.T) {
	iss := NewIssuer("link-key")
	seed, err := iss.Issue()
	require.NoError(t, err)

	a, err := iss.Derive(RoleSpeakerOffer, seed)
	require.NoError(t, err)
	b, err := iss.Derive(RoleSpeakerOffer, seed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultLength)
	assert.True(t, Valid(a))
	assert.NotEqual(t, seed, a)

	other, err := iss.Derive(RoleClient, seed)
	require.NoError(t, err)
	assert.NotEqual(t, a, other)

	otherKey, err := NewIssuer("another-key").Derive(RoleSpeakerOffer, seed)
	require.NoError(t, err)
	assert.NotEqual(t, a, otherKey)

	otherSeed, err := iss.Derive(RoleSpeakerOffer, seed+"x")
	require.NoError(t, err)
	assert.NotEqual(t, a, otherSeed)
}

func TestDeriveNeedsKeyAndSeed(t *testing.T) {
	_, err := (&Issuer{}).Derive(RoleSpeakerOffer, "seed")
	assert.Error(t, err)
	_, err = NewIssuer("k").Derive(RoleSpeakerOffer, "")
	assert.Error(t, err)
}
