package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"visitorax/internal/service"
)

// ContextIdentityKey guarda la identidad de la sesion en el contexto gin.
const ContextIdentityKey = "session_identity"

// VisitorAuthMiddleware valida el token del visitante y exige actividad
// reciente: un token vigente con la marca de actividad vencida cuenta
// como sesion cerrada por inactividad.
func VisitorAuthMiddleware(sessions *service.SessionService, activity service.ActivityTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessions == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sessions not configured"})
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := sessions.ParseVisitor(token)
		if err != nil {
			if errors.Is(err, service.ErrSessionExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			c.Abort()
			return
		}

		if activity != nil {
			active, err := activity.Active(c.Request.Context(), claims.Identity)
			if err == nil && !active {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "logged out due to inactivity"})
				c.Abort()
				return
			}
			_ = activity.Touch(c.Request.Context(), claims.Identity)
		}

		c.Set(ContextIdentityKey, claims.Identity)
		c.Next()
	}
}

// AdminAuthMiddleware valida el token de recepcion.
func AdminAuthMiddleware(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessions == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sessions not configured"})
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := sessions.ParseAdmin(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextIdentityKey, claims.Identity)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", false
	}
	return strings.TrimSpace(header[len("Bearer "):]), true
}
