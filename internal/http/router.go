package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"visitorax/internal/db"
	"visitorax/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	authH *AuthHandler,
	visitH *VisitHandler,
	adminH *AdminHandler,
	sessions *service.SessionService,
	activity service.ActivityTracker,
	pool db.Pinger,
	rdb *redis.Client,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", healthzHandler(pool, rdb))

	auth := r.Group("/auth")
	auth.POST("/otp/request", authH.RequestOTP)
	auth.POST("/otp/verify", authH.VerifyOTP)
	auth.POST("/face/verify", authH.VerifyFace)
	auth.POST("/enroll", authH.Enroll)

	r.GET("/me", VisitorAuthMiddleware(sessions, activity), visitH.Me)

	visits := r.Group("/visits", VisitorAuthMiddleware(sessions, activity))
	visits.POST("", visitH.Create)
	visits.GET("/current", visitH.Current)
	visits.POST("/:id/checkin", visitH.CheckIn)
	visits.POST("/:id/checkout", visitH.CheckOut)

	admin := r.Group("/admin")
	admin.POST("/login", adminH.Login)

	adminAuth := admin.Group("", AdminAuthMiddleware(sessions))
	adminAuth.GET("/approvals", adminH.ListApprovals)
	adminAuth.POST("/approvals/:identity/approve", adminH.Approve)
	adminAuth.POST("/approvals/:identity/reject", adminH.Reject)
	adminAuth.GET("/visits", adminH.ListVisits)

	return r
}

// healthzHandler verifica la base de datos y, si esta configurado, redis.
func healthzHandler(pool db.Pinger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
