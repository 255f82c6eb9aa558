package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxSessionIDKey   = "session_id" // string
	SessionHeader     = "X-Session-ID"
	SessionCookieName = "session_id"

	sessionCookieTTL = 30 * 24 * time.Hour
)

// Session resolves the shopper's session id from the X-Session-ID header or
// the session cookie and issues a fresh uuid when neither carries a valid one.
// The id is echoed back in both places.
func Session(secureCookie bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(SessionHeader))
			if id == "" {
				if ck, err := c.Cookie(SessionCookieName); err == nil {
					id = ck.Value
				}
			}
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}

			c.Set(CtxSessionIDKey, id)
			c.Response().Header().Set(SessionHeader, id)
			c.SetCookie(&http.Cookie{
				Name:     SessionCookieName,
				Value:    id,
				Path:     "/",
				Expires:  time.Now().Add(sessionCookieTTL),
				HttpOnly: true,
				Secure:   secureCookie,
				SameSite: http.SameSiteLaxMode,
			})

			return next(c)
		}
	}
}

func SessionID(c echo.Context) string {
	id, _ := c.Get(CtxSessionIDKey).(string)
	return id
}
