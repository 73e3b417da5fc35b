package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaar-dev/bazaar/internal/auth"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, subject, role string, method jwt.SigningMethod, key any) string {
	t.Helper()
	token := jwt.NewWithClaims(method, tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func authedRequest(token string, viaCookie bool) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		if viaCookie {
			req.AddCookie(&http.Cookie{Name: "token", Value: token})
		} else {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthenticate_ValidBearer(t *testing.T) {
	token := signToken(t, "u1", "admin", jwt.SigningMethodHS256, testSecret)
	c, _ := authedRequest(token, false)

	var called bool
	next := func(c echo.Context) error {
		called = true
		assert.Equal(t, "u1", callerID(c))
		assert.Equal(t, auth.RoleAdmin, callerRole(c))
		return nil
	}

	require.NoError(t, Authenticate(testSecret)(next)(c))
	assert.True(t, called)
}

func TestAuthenticate_TokenCookie(t *testing.T) {
	token := signToken(t, "u2", "user", jwt.SigningMethodHS256, testSecret)
	c, _ := authedRequest(token, true)

	next := func(c echo.Context) error {
		assert.Equal(t, "u2", callerID(c))
		return nil
	}
	require.NoError(t, Authenticate(testSecret)(next)(c))
}

func TestAuthenticate_MissingToken(t *testing.T) {
	c, _ := authedRequest("", false)

	err := Authenticate(testSecret)(func(echo.Context) error { return nil })(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	token := signToken(t, "u1", "user", jwt.SigningMethodHS256, []byte("other-secret"))
	c, _ := authedRequest(token, false)

	err := Authenticate(testSecret)(func(echo.Context) error { return nil })(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Role: "user",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)

	c, _ := authedRequest(signed, false)
	err = Authenticate(testSecret)(func(echo.Context) error { return nil })(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticate_NoSubject(t *testing.T) {
	token := signToken(t, "", "user", jwt.SigningMethodHS256, testSecret)
	c, _ := authedRequest(token, false)

	err := Authenticate(testSecret)(func(echo.Context) error { return nil })(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole(auth.RoleAdmin)

	c, _ := authedRequest("", false)
	c.Set(ctxRole, "admin")
	require.NoError(t, mw(func(echo.Context) error { return nil })(c))

	c, _ = authedRequest("", false)
	c.Set(ctxRole, "user")
	err := mw(func(echo.Context) error { return nil })(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)

	c, _ = authedRequest("", false)
	err = mw(func(echo.Context) error { return nil })(c)
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
