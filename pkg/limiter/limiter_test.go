package limiter

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/docedit/internal/docedit/config"
)

func TestCommunityLimiter(t *testing.T) {
	l := CommunityLimiter{MaxSessions: 2, MaxDocumentSize: 10}
	assert.True(t, l.CanOpenSession(1))
	assert.False(t, l.CanOpenSession(2))
	assert.True(t, l.CanSaveDocument(10))
	assert.False(t, l.CanSaveDocument(11))
	assert.Equal(t, 1, l.GetRemainingSessions(1))
	assert.Equal(t, 0, l.GetRemainingSessions(5))

	unlimited := CommunityLimiter{}
	assert.True(t, unlimited.CanOpenSession(1000))
	assert.True(t, unlimited.CanSaveDocument(1<<30))
}

func TestExternalLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/can/open/session":
			active, _ := strconv.Atoi(r.URL.Query().Get("active"))
			if active >= 3 {
				w.WriteHeader(http.StatusForbidden)
				return
			}
		case "/can/save/document":
		case "/remain/sessions":
			w.Header().Set("X-Entity-Remain", "7")
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host, err := url.Parse(srv.URL)
	require.NoError(t, err)
	l := NewExternalLimiter(host, "secret")

	assert.True(t, l.CanOpenSession(1))
	assert.False(t, l.CanOpenSession(3))
	assert.True(t, l.CanSaveDocument(100))
	assert.Equal(t, 7, l.GetRemainingSessions(0))

	noToken := NewExternalLimiter(host, "")
	assert.False(t, noToken.CanSaveDocument(1))
	assert.Equal(t, -1, noToken.GetRemainingSessions(0))
}

func TestInit(t *testing.T) {
	defer func() { Limiter = CommunityLimiter{} }()

	Init(&config.Config{MaxSessions: 5})
	assert.Equal(t, CommunityLimiter{MaxSessions: 5}, Limiter)

	Init(&config.Config{ExternalLimiterURL: "http://limits.local"})
	_, ok := Limiter.(*ExternalLimiter)
	assert.True(t, ok)
}
