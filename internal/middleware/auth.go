package middleware

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const UserIDKey = "user_id"

// Auth resolves the calling principal from a bearer token and stores it in
// the request context. It never rejects by itself: endpoints that require
// authentication check for an empty principal and answer with their own
// "authentication required" semantics.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				raw := strings.TrimPrefix(header, "Bearer ")

				token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
					}
					return []byte(secret), nil
				})
				if err == nil && token.Valid {
					if claims, ok := token.Claims.(jwt.MapClaims); ok {
						if sub, _ := claims["sub"].(string); sub != "" {
							c.Set(UserIDKey, sub)
						}
					}
				}
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated principal, or empty when the request is
// anonymous.
func UserID(c echo.Context) string {
	userID, _ := c.Get(UserIDKey).(string)
	return userID
}
