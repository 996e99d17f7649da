package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"visitorax/internal/face"
	"visitorax/internal/flow"
	"visitorax/internal/service"
)

// AuthHandler mantiene dependencias para el flujo de login y registro.
type AuthHandler struct {
	logger   *zap.Logger
	otpServ  *service.OTPService
	verifier *service.FaceVerifyService
	enroller *service.EnrollmentService
	sessions *service.SessionService
	activity service.ActivityTracker
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(
	logger *zap.Logger,
	otpServ *service.OTPService,
	verifier *service.FaceVerifyService,
	enroller *service.EnrollmentService,
	sessions *service.SessionService,
	activity service.ActivityTracker,
) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		otpServ:  otpServ,
		verifier: verifier,
		enroller: enroller,
		sessions: sessions,
		activity: activity,
	}
}

// RequestOTP maneja POST /auth/otp/request.
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Identity string `json:"identity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.otpServ.RequestCode(c.Request.Context(), req.Identity); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidIdentity):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identity"})
		case errors.Is(err, service.ErrPendingApproval):
			c.JSON(http.StatusConflict, gin.H{"error": "face record pending approval"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		case errors.Is(err, service.ErrDeliveryFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "otp delivery unavailable"})
		default:
			h.logger.Error("request otp failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not request otp"})
		}
		return
	}

	// Un ciclo nuevo de login invalida cualquier sesion de verificacion
	// facial previa de la identidad.
	h.verifier.Reset(req.Identity)

	c.JSON(http.StatusOK, gin.H{"status": "otp_sent"})
}

// VerifyOTP maneja POST /auth/otp/verify. El codigo valido no autentica
// por si solo: la respuesta trae el siguiente paso del recorrido segun el
// estado facial del visitante.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Identity string `json:"identity" binding:"required"`
		Code     string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp verify request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	visitor, err := h.otpServ.VerifyCode(c.Request.Context(), req.Identity, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVisitorNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "visitor not found"})
		case errors.Is(err, service.ErrInvalidIdentity),
			errors.Is(err, service.ErrOTPNotRequested),
			errors.Is(err, service.ErrOTPInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP."})
		default:
			h.logger.Error("verify otp failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify otp"})
		}
		return
	}

	result, err := flow.Next(flow.StepOTP, flow.CodeVerified{
		FaceStatus:   visitor.FaceStatus,
		RejectReason: visitor.FaceRejectReason,
	})
	if err != nil {
		if errors.Is(err, flow.ErrBlockedPending) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "face record pending approval",
				"next_step": string(result.Step),
			})
			return
		}
		h.logger.Error("flow transition failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not advance flow"})
		return
	}

	resp := gin.H{"next_step": string(result.Step)}
	if result.Message != "" {
		resp["message"] = result.Message
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyFace maneja POST /auth/face/verify: un tick del lazo de
// verificacion con el embedding en vivo del cliente.
func (h *AuthHandler) VerifyFace(c *gin.Context) {
	var req struct {
		Identity  string    `json:"identity" binding:"required"`
		Embedding []float32 `json:"embedding" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid face verify request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	matched, dist, err := h.verifier.Verify(c.Request.Context(), req.Identity, req.Embedding)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidIdentity),
			errors.Is(err, face.ErrDimensionMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid embedding"})
		case errors.Is(err, service.ErrVisitorNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "visitor not found"})
		case errors.Is(err, service.ErrFaceNotApproved), errors.Is(err, service.ErrNoReference):
			c.JSON(http.StatusConflict, gin.H{"error": "face record not ready for verification"})
		default:
			h.logger.Error("face verify failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify face"})
		}
		return
	}

	resp := gin.H{"matched": matched, "distance": dist}
	if matched {
		token, err := h.issueSession(c, req.Identity)
		if err != nil {
			return
		}
		resp["token"] = token
	}
	c.JSON(http.StatusOK, resp)
}

// Enroll maneja POST /auth/enroll (multipart): perfil, embedding y foto.
func (h *AuthHandler) Enroll(c *gin.Context) {
	var req struct {
		Identity  string    `form:"identity" binding:"required"`
		Name      string    `form:"name" binding:"required"`
		Company   string    `form:"company" binding:"required"`
		Address   string    `form:"address" binding:"required"`
		DOB       string    `form:"dob" binding:"required"`
		Embedding []float32 `form:"embedding" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("invalid enroll request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	photo, err := readPhoto(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "face photo is required"})
		return
	}

	visitor, err := h.enroller.Finalize(c.Request.Context(), req.Identity, service.EnrollmentInput{
		Name:      req.Name,
		Company:   req.Company,
		Address:   req.Address,
		DOB:       req.DOB,
		Embedding: req.Embedding,
		Photo:     photo,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidIdentity),
			errors.Is(err, service.ErrProfileIncomplete),
			errors.Is(err, service.ErrPhotoRequired),
			errors.Is(err, service.ErrBadEmbedding):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrVisitorNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "visitor not found"})
		case errors.Is(err, service.ErrUploadFailure):
			c.JSON(http.StatusBadGateway, gin.H{"error": "face photo upload failed"})
		default:
			h.logger.Error("enroll failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not finalize enrollment"})
		}
		return
	}

	token, err := h.issueSession(c, visitor.Identity)
	if err != nil {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"visitor": visitor, "token": token})
}

func (h *AuthHandler) issueSession(c *gin.Context, identity string) (string, error) {
	token, err := h.sessions.IssueVisitor(identity)
	if err != nil {
		h.logger.Error("session issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue session"})
		return "", err
	}
	if h.activity != nil {
		if err := h.activity.Touch(c.Request.Context(), identity); err != nil {
			h.logger.Warn("activity touch failed", zap.Error(err))
		}
	}
	return token, nil
}

func readPhoto(c *gin.Context) ([]byte, error) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return nil, err
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
