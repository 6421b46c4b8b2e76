package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMailerPostsJSON(t *testing.T) {
	var got Message
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewHTTPMailer(srv.URL, "key123", time.Second)
	err := m.Send(context.Background(), Message{To: "a@b.test", Subject: "hi", Text: "body"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer key123", auth)
	assert.Equal(t, "a@b.test", got.To)
}

func TestHTTPMailerReportsProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewHTTPMailer(srv.URL, "", time.Second).Send(context.Background(), Message{To: "a@b.test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestHTTPMailerTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	err := NewHTTPMailer(srv.URL, "", 20*time.Millisecond).Send(context.Background(), Message{To: "a@b.test"})
	assert.Error(t, err)
}
