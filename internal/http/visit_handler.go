package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"visitorax/internal/domain"
	"visitorax/internal/service"
)

// VisitHandler expone el perfil autenticado y el registro de visitas.
type VisitHandler struct {
	logger *zap.Logger
	visits *service.VisitService
}

// NewVisitHandler crea una instancia de VisitHandler.
func NewVisitHandler(logger *zap.Logger, visits *service.VisitService) *VisitHandler {
	return &VisitHandler{logger: logger, visits: visits}
}

// Me maneja GET /me con la identidad de la sesion.
func (h *VisitHandler) Me(c *gin.Context) {
	identity := c.GetString(ContextIdentityKey)

	visitor, err := h.visits.Profile(c.Request.Context(), identity)
	if err != nil {
		if errors.Is(err, service.ErrVisitorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "visitor not found"})
			return
		}
		h.logger.Error("load profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}
	c.JSON(http.StatusOK, visitor)
}

// Create maneja POST /visits: abre un registro de visita nuevo.
func (h *VisitHandler) Create(c *gin.Context) {
	identity := c.GetString(ContextIdentityKey)

	var req struct {
		HostName  string `json:"host_name" binding:"required"`
		HostEmail string `json:"host_email" binding:"required"`
		Purpose   string `json:"purpose" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid visit request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	visit, err := h.visits.Create(c.Request.Context(), identity, service.VisitInput{
		HostName:  req.HostName,
		HostEmail: req.HostEmail,
		Purpose:   req.Purpose,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPurpose),
			errors.Is(err, service.ErrVisitInputRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrVisitorNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "visitor not found"})
		case errors.Is(err, service.ErrVisitAlreadyOpen):
			c.JSON(http.StatusConflict, gin.H{"error": "an open visit already exists"})
		default:
			h.logger.Error("create visit failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create visit"})
		}
		return
	}
	c.JSON(http.StatusCreated, visit)
}

// Current maneja GET /visits/current: la visita abierta del visitante.
func (h *VisitHandler) Current(c *gin.Context) {
	identity := c.GetString(ContextIdentityKey)

	visit, err := h.visits.Current(c.Request.Context(), identity)
	if err != nil {
		if errors.Is(err, service.ErrVisitNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no open visit"})
			return
		}
		h.logger.Error("load current visit failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load visit"})
		return
	}
	c.JSON(http.StatusOK, visit)
}

// CheckIn maneja POST /visits/:id/checkin.
func (h *VisitHandler) CheckIn(c *gin.Context) {
	h.mark(c, h.visits.CheckIn)
}

// CheckOut maneja POST /visits/:id/checkout.
func (h *VisitHandler) CheckOut(c *gin.Context) {
	h.mark(c, h.visits.CheckOut)
}

func (h *VisitHandler) mark(c *gin.Context, op func(ctx context.Context, identity, visitID string) (domain.VisitLog, error)) {
	identity := c.GetString(ContextIdentityKey)
	visitID := c.Param("id")

	visit, err := op(c.Request.Context(), identity, visitID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVisitNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "visit not found"})
		case errors.Is(err, service.ErrAlreadyCheckedIn),
			errors.Is(err, service.ErrAlreadyCheckedOut),
			errors.Is(err, service.ErrNotCheckedIn):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("visit update failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update visit"})
		}
		return
	}
	c.JSON(http.StatusOK, visit)
}
