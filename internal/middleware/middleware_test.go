package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/maht0rz/spartans-club-web/internal/i18n"
	"github.com/maht0rz/spartans-club-web/internal/observability"
)

func testBundle() *i18n.Bundle {
	return i18n.New(i18n.SK, map[i18n.Locale]map[string]string{
		i18n.SK: {"brand.name": "Spartans"},
		i18n.EN: {"brand.name": "Spartans"},
	})
}

// echoLocale writes the locale the handler sees.
func newLocaleRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(LocaleRedirect(testBundle(), LocaleOptions{}))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(Lang(r).String()))
	})
	return r
}

func localeCookie(t *testing.T, res *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == LocaleCookie {
			return c
		}
	}
	return nil
}

func TestLocalePrefixedPathSetsCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/en/sessions", nil)
	req.AddCookie(&http.Cookie{Name: LocaleCookie, Value: "sk"})
	newLocaleRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "en", rec.Body.String(), "path beats cookie")
	c := localeCookie(t, rec.Result())
	require.NotNil(t, c)
	assert.Equal(t, "en", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 31536000, c.MaxAge)
	assert.Equal(t, "en", rec.Header().Get("Content-Language"))
}

func TestLocaleRedirectResolution(t *testing.T) {
	cases := []struct {
		name, path, cookie, accept, want string
	}{
		{"cookie wins over header", "/sessions", "en", "sk", "/en/sessions"},
		{"invalid cookie ignored", "/", "de", "en-GB,en;q=0.8", "/en"},
		{"header first supported", "/", "", "de-DE,en;q=0.9,sk;q=0.8", "/en"},
		{"header order beats q", "/", "", "en;q=0.5,sk;q=0.9", "/en"},
		{"low q first entry", "/", "", "en-US;q=0.1, sk", "/en"},
		{"default", "/o-nas", "", "fr", "/sk/o-nas"},
		{"query kept", "/rozvrh?utm_source=fb", "", "", "/sk/rozvrh?utm_source=fb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LocaleCookie, Value: tc.cookie})
			}
			if tc.accept != "" {
				req.Header.Set("Accept-Language", tc.accept)
			}
			newLocaleRouter().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			assert.Equal(t, tc.want, rec.Header().Get("Location"))
			c := localeCookie(t, rec.Result())
			require.NotNil(t, c)
			assert.Equal(t, tc.want[1:3], c.Value)
		})
	}
}

func TestLocalePrefixCaseRedirect(t *testing.T) {
	cases := []struct {
		path, want, cookie string
	}{
		{"/EN/sessions", "/en/sessions", "en"},
		{"/Sk", "/sk", "sk"},
		{"/eN/about?ref=ig", "/en/about?ref=ig", "en"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.AddCookie(&http.Cookie{Name: LocaleCookie, Value: "sk"})
			req.Header.Set("Accept-Language", "sk")
			newLocaleRouter().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusMovedPermanently, rec.Code)
			assert.Equal(t, tc.want, rec.Header().Get("Location"))
			c := localeCookie(t, rec.Result())
			require.NotNil(t, c)
			assert.Equal(t, tc.cookie, c.Value)
		})
	}
}

func TestLocalePassthrough(t *testing.T) {
	for _, p := range []string{"/assets/app.css", "/api/consent", "/_health", "/sitemap.xml", "/sitemap-images.xml", "/robots.txt", "/healthz", "/logo.png", "/gallery/photo.webp", "/.well-known/security", "/v1.2/docs"} {
		rec := httptest.NewRecorder()
		newLocaleRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusOK, rec.Code, p)
		assert.Equal(t, "sk", rec.Body.String(), "fallback locale for %s", p)
		assert.Nil(t, localeCookie(t, rec.Result()), "no cookie for %s", p)
	}
}

func TestVaryLocale(t *testing.T) {
	rec := httptest.NewRecorder()
	VaryLocale(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sk", nil))
	assert.Equal(t, []string{"Accept-Language", "Cookie"}, rec.Header().Values("Vary"))
}

func TestLoggerWritesRequestLine(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var ctxLogger *zap.Logger
	h := chiMid.RequestID(Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = observability.FromContext(r.Context())
		w.Header().Set("Content-Language", "en")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	})))
	req := httptest.NewRequest(http.MethodGet, "/en/missing", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 203.0.113.9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request", entry.Message)
	assert.Equal(t, zap.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "/en/missing", fields["path"])
	assert.Equal(t, int64(404), fields["status"])
	assert.Equal(t, int64(4), fields["bytes"])
	assert.Equal(t, "203.0.113.9", fields["remote_ip"])
	assert.Equal(t, "en", fields["locale"])
	assert.NotEmpty(t, fields["request_id"])
	assert.NotNil(t, ctxLogger)
}

func TestAssetsETagAndNoListing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "site.css"), []byte("body{}"), 0o644))
	h := Assets(dir, "/assets", nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/css/site.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	et := rec.Header().Get("ETag")
	require.NotEmpty(t, et)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=604800")

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/assets/css/site.css", nil)
	req.Header.Set("If-None-Match", et)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/css/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodPost, "/api/consent", nil), http.StatusBadRequest, "bad state")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad state"}`, rec.Body.String())
}

func TestWriteErrorCarriesRequestID(t *testing.T) {
	h := chiMid.RequestID(Logger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusBadRequest, "bad state")
	})))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/consent", nil)
	req.Header.Set(chiMid.RequestIDHeader, "req-42")
	h.ServeHTTP(rec, req)

	assert.JSONEq(t, `{"error":"bad state","request_id":"req-42"}`, rec.Body.String())
}
