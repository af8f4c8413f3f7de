package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stockwatch/internal/session"
)

const sessionContextKey = "stockwatch.session"

// SessionMiddleware resolves the bearer token into a live session.
// Websocket clients cannot set headers, so ?token= is accepted too.
type SessionMiddleware struct {
	JWT      session.JWT
	Sessions *session.Manager
}

func (m *SessionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = strings.TrimSpace(c.Query("token"))
		}
		if token == "" {
			Error(c, http.StatusUnauthorized, "missing bearer token", nil)
			c.Abort()
			return
		}
		claims, err := m.JWT.Verify(token)
		if err != nil {
			Error(c, http.StatusUnauthorized, "invalid token", nil)
			c.Abort()
			return
		}
		s, ok := m.Sessions.Get(claims.SessionID)
		if !ok {
			Error(c, http.StatusUnauthorized, "session expired", nil)
			c.Abort()
			return
		}
		c.Set(sessionContextKey, s)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok
}

func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	parts := strings.SplitN(v, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
