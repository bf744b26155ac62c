package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zvrva/skybooker/internal/auth"
	"github.com/zvrva/skybooker/internal/domain"
)

const ctxSubjectKey = "subject"

type AuthMiddleware struct {
	verifier auth.Verifier
}

func NewAuthMiddleware(verifier auth.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth rejects callers without a valid bearer token before any
// orchestration begins.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
			return
		}
		token := strings.TrimSpace(header[len("Bearer "):])

		subject, err := m.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ctxSubjectKey, subject)
		c.Next()
	}
}

// Subject returns the authenticated caller set by RequireAuth.
func Subject(c *gin.Context) (domain.Subject, bool) {
	v, exists := c.Get(ctxSubjectKey)
	if !exists {
		return domain.Subject{}, false
	}
	subject, ok := v.(domain.Subject)
	return subject, ok
}
