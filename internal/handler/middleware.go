package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bazaar-dev/bazaar/internal/auth"
)

// Context keys populated by Authenticate.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// tokenClaims is the expected JWT payload: standard claims plus a role.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate verifies the bearer token (Authorization header or "token"
// cookie), then stores the caller's id and role on the echo context.
func Authenticate(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "login first to access this resource")
			}

			claims := &tokenClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			c.Set(ctxUserID, claims.Subject)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}

// RequireRole rejects callers whose role is not in the allowed set. It runs
// after Authenticate.
func RequireRole(allowed ...auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ctxRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing role")
			}
			if !auth.Authorize(auth.Role(role), allowed...) {
				return echo.NewHTTPError(http.StatusForbidden,
					"role ("+role+") is not allowed to access this resource")
			}
			return next(c)
		}
	}
}

// InjectLogger places the base logger into each request's context so
// services can log via zctx.From.
func InjectLogger(lg *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := zctx.Base(req.Context(), lg)
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// LogRequests emits one structured line per completed request.
func LogRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var httpErr *echo.HTTPError
				if errors.As(err, &httpErr) {
					status = httpErr.Code
				}
			}

			zctx.From(c.Request().Context()).Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}

func bearerToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

func callerID(c echo.Context) string {
	id, _ := c.Get(ctxUserID).(string)
	return id
}

func callerRole(c echo.Context) auth.Role {
	role, _ := c.Get(ctxRole).(string)
	return auth.Role(role)
}
