// Package middleware contains the shared Echo middleware: JWT
// authentication, role enforcement and rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/abhishekbishtt/booking-app/internal/repository"
)

// JWTAuth validates a Bearer access token, rejects revoked tokens via
// the Redis blacklist and injects the authenticated identity into the
// request context.  Handlers read it back with c.Get("user_id")
// (uint64), c.Get("role") (string) and c.Get("jti") (string).
func JWTAuth(secret string, blacklist *repository.BlacklistRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			sub, ok := claims["sub"].(float64)
			if !ok || sub <= 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			jti, _ := claims["jti"].(string)
			if blacklist != nil && blacklist.Contains(c.Request().Context(), jti) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token revoked"})
			}

			c.Set("user_id", uint64(sub))
			c.Set("role", claims["role"])
			c.Set("jti", jti)
			return next(c)
		}
	}
}
