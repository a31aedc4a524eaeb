package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func handler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestGetIssuesToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, Middleware(Config{})(handler)(c))
	require.NotEmpty(t, rec.Header().Get(HeaderName))

	var issued string
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == CookieName {
			issued = ck.Value
		}
	}
	require.NotEmpty(t, issued)
}

func TestPostWithoutTokenRejected(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/cart", nil)
	req.Header.Set("Origin", "http://"+req.Host)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware(Config{})(handler)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestPostWithMatchingTokenAccepted(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/cart", nil)
	req.Host = "shop.example"
	req.Header.Set("Origin", "http://shop.example")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok-123"})
	req.Header.Set(HeaderName, "tok-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, Middleware(Config{})(handler)(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCrossOriginRejected(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/cart", nil)
	req.Host = "shop.example"
	req.Header.Set("Origin", "http://evil.example")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok-123"})
	req.Header.Set(HeaderName, "tok-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware(Config{})(handler)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestSkipPaths(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Middleware(Config{SkipPaths: []string{"/api/login"}})
	require.NoError(t, mw(handler)(c))
	require.Equal(t, http.StatusOK, rec.Code)
}
