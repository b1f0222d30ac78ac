package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Claims is the JWT payload the server accepts. Tokens are issued by the
// session service; this server only verifies them.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// JWT returns middleware that verifies a bearer token signed with the shared
// HS256 secret and populates the user id and roles into the request context.
func JWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			tokenStr := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			ctx := WithUser(c.Request().Context(), claims.Subject, claims.Roles)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// HeaderHospitalID carries the hospital scope selected by the client.
const HeaderHospitalID = "X-Hospital-Id"

// HospitalContext returns middleware that reads the optional X-Hospital-Id
// header into the request context. Handlers that need a hospital scope and
// cannot derive one from the path reject requests without it.
func HospitalContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(HeaderHospitalID)
			if header == "" {
				return next(c)
			}
			hospitalID, err := uuid.Parse(header)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid X-Hospital-Id header")
			}
			ctx := WithHospital(c.Request().Context(), hospitalID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// DevAuth returns middleware for development mode: every request runs as a
// fixed admin user. Never enabled outside ENV=development.
func DevAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := WithUser(c.Request().Context(), "dev-admin", []string{"admin"})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
