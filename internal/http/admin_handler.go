package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"visitorax/internal/service"
)

// AdminHandler agrupa los endpoints de recepcion.
type AdminHandler struct {
	logger   *zap.Logger
	admins   *service.AdminService
	visits   *service.VisitService
	sessions *service.SessionService
}

// NewAdminHandler crea una instancia de AdminHandler.
func NewAdminHandler(logger *zap.Logger, admins *service.AdminService, visits *service.VisitService, sessions *service.SessionService) *AdminHandler {
	return &AdminHandler{
		logger:   logger,
		admins:   admins,
		visits:   visits,
		sessions: sessions,
	}
}

// Login maneja POST /admin/login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid admin login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	admin, err := h.admins.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("admin login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log in"})
		return
	}

	token, err := h.sessions.IssueAdmin(admin)
	if err != nil {
		h.logger.Error("admin session issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"admin": gin.H{"id": admin.ID, "email": admin.Email, "name": admin.Name},
	})
}

// ListApprovals maneja GET /admin/approvals.
func (h *AdminHandler) ListApprovals(c *gin.Context) {
	pending, err := h.admins.ListPending(c.Request.Context())
	if err != nil {
		h.logger.Error("list pending approvals failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list approvals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

// Approve maneja POST /admin/approvals/:identity/approve.
func (h *AdminHandler) Approve(c *gin.Context) {
	identity := c.Param("identity")

	if err := h.admins.Approve(c.Request.Context(), identity); err != nil {
		h.writeApprovalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

// Reject maneja POST /admin/approvals/:identity/reject.
func (h *AdminHandler) Reject(c *gin.Context) {
	identity := c.Param("identity")

	var req struct {
		Reason string `json:"reason"`
	}
	// El motivo es opcional; un cuerpo vacio deja el motivo por defecto.
	_ = c.ShouldBindJSON(&req)

	if err := h.admins.Reject(c.Request.Context(), identity, req.Reason); err != nil {
		h.writeApprovalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// ListVisits maneja GET /admin/visits.
func (h *AdminHandler) ListVisits(c *gin.Context) {
	visits, err := h.visits.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("list visits failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list visits"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"visits": visits})
}

func (h *AdminHandler) writeApprovalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidIdentity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identity"})
	case errors.Is(err, service.ErrVisitorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "visitor not found"})
	case errors.Is(err, service.ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": "face record is not pending"})
	default:
		h.logger.Error("approval update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update approval"})
	}
}
