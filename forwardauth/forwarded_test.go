package forwardauth

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSecure(t *testing.T) {
	req := func(proto string, tlsConn bool) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if proto != "" {
			r.Header.Set("X-Forwarded-Proto", proto)
		}
		if tlsConn {
			r.TLS = &tls.ConnectionState{}
		}
		return r
	}
	assert.False(t, IsSecure(req("", false), SecureAuto))
	assert.True(t, IsSecure(req("", true), SecureAuto))
	assert.True(t, IsSecure(req("https", false), SecureAuto))
	assert.True(t, IsSecure(req("HTTPS", false), SecureAuto))
	assert.False(t, IsSecure(req("http", true), SecureAuto), "forwarded protocol wins over the proxy hop")
	assert.True(t, IsSecure(req("http", false), SecureAlways))
	assert.False(t, IsSecure(req("https", false), SecureNever))
}

func TestParseSecureMode(t *testing.T) {
	for in, expected := range map[string]SecureMode{
		"":       SecureAuto,
		"auto":   SecureAuto,
		"Always": SecureAlways,
		"never":  SecureNever,
	} {
		got, err := ParseSecureMode(in)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	}
	_, err := ParseSecureMode("sometimes")
	assert.Error(t, err)
}

func TestOriginalURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := OriginalURL(r)
	assert.False(t, ok)

	r.Header.Set("X-Forwarded-Proto", "https")
	r.Header.Set("X-Forwarded-Host", "app.example.com")
	r.Header.Set("X-Forwarded-Port", "8443")
	_, ok = OriginalURL(r)
	assert.False(t, ok, "all four headers are required")

	r.Header.Set("X-Forwarded-Uri", "/a/b?c=d")
	u, ok := OriginalURL(r)
	require.True(t, ok)
	assert.Equal(t, "https://app.example.com:8443/a/b?c=d", u)

	r.Header.Set("X-Forwarded-Proto", "javascript")
	_, ok = OriginalURL(r)
	assert.False(t, ok)
}

func TestShaperRender(t *testing.T) {
	s := Shaper{Realm: `Say "hi"`, UserHeader: "x-user"}

	rec := httptest.NewRecorder()
	s.Render(rec, Authenticated{Identity: Identity{UserID: "alice"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Header().Get("x-user"))
	assert.Empty(t, rec.Header().Values("Set-Cookie"))
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Render(rec, Unauthenticated{ClearCookie: &http.Cookie{Name: testCookie, MaxAge: -1}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="Say \"hi\""`, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Len(t, rec.Header().Values("Set-Cookie"), 1)
	assert.Equal(t, challengeBody, rec.Body.String())
	assert.Empty(t, rec.Header().Get("x-user"))
}
