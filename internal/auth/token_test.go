package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	s := NewSigner("test-secret")
	raw, err := s.GenerateAccessToken(7, "ops@agency.test", true)
	require.NoError(t, err)

	c, err := s.ParseAndValidate(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(7), c.StaffID)
	assert.Equal(t, "ops@agency.test", c.Email)
	assert.True(t, c.IsAdmin)
}

func TestParseRejectsOtherSecretAndExpired(t *testing.T) {
	s := NewSigner("a")
	raw, err := s.GenerateAccessToken(1, "x@y.z", false)
	require.NoError(t, err)

	_, err = NewSigner("b").ParseAndValidate(raw)
	assert.Error(t, err)

	later := NewSigner("a")
	later.now = func() time.Time { return time.Now().Add(AccessTTL + time.Hour) }
	_, err = later.ParseAndValidate(raw)
	assert.Error(t, err)
}

func TestMiddlewareChain(t *testing.T) {
	s := NewSigner("secret")
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "boss@agency.test", Actor(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
	h := s.Authenticate(RequireAdmin(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deals", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	staff, _ := s.GenerateAccessToken(2, "staff@agency.test", false)
	req := httptest.NewRequest(http.MethodGet, "/deals", nil)
	req.Header.Set("Authorization", "Bearer "+staff)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	admin, _ := s.GenerateAccessToken(3, "boss@agency.test", true)
	req = httptest.NewRequest(http.MethodGet, "/deals", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
