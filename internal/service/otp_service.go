package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"visitorax/internal/domain"
	"visitorax/internal/email"
	"visitorax/internal/repository"
	"visitorax/internal/sms"
)

var (
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrVisitorNotFound = errors.New("visitor not found")
	ErrOTPNotRequested = errors.New("otp not requested")
	ErrOTPInvalid      = errors.New("otp invalid")
	ErrDeliveryFailure = errors.New("otp delivery failed")
	ErrRateLimited     = errors.New("rate limited")
	ErrPendingApproval = errors.New("face record pending approval")
)

// otpTTL es la ventana de expiracion que se almacena junto al codigo.
const otpTTL = 5 * time.Minute

// OTPService coordina la emision y verificacion de codigos por identidad.
type OTPService struct {
	logger      *zap.Logger
	visitors    repository.VisitorRepository
	emailSender email.Sender
	smsSender   sms.Sender
	limiter     OTPRateLimiter
}

func NewOTPService(logger *zap.Logger, visitors repository.VisitorRepository, emailSender email.Sender, smsSender sms.Sender, limiter OTPRateLimiter) *OTPService {
	if limiter == nil {
		limiter = NewOTPRateLimiter(otpTTL, 3)
	}
	return &OTPService{
		logger:      logger,
		visitors:    visitors,
		emailSender: emailSender,
		smsSender:   smsSender,
		limiter:     limiter,
	}
}

// RequestCode genera un codigo de 4 digitos, lo persiste con upsert por
// identidad (gana la ultima escritura) y lo despacha por correo o SMS
// segun la forma de la identidad. No hay reintentos: el fallo de
// persistencia o de despacho se reporta al llamador.
func (s *OTPService) RequestCode(ctx context.Context, rawIdentity string) error {
	if s.visitors == nil {
		return errors.New("otp service not configured")
	}

	identity, kind := domain.NormalizeIdentity(rawIdentity)
	if kind == domain.IdentityUnknown {
		return ErrInvalidIdentity
	}

	if s.limiter != nil && !s.limiter.Allow(identity) {
		return ErrRateLimited
	}

	// Un registro facial en espera bloquea el ciclo completo antes de
	// emitir codigo alguno.
	existing, err := s.visitors.GetByIdentity(ctx, identity)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if err == nil && existing.FaceStatus == domain.FaceStatusPending {
		return ErrPendingApproval
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	expiresAt := time.Now().UTC().Add(otpTTL)

	if err := s.visitors.UpsertOTP(ctx, identity, code, expiresAt); err != nil {
		return err
	}

	switch kind {
	case domain.IdentityEmail:
		if s.emailSender == nil {
			return ErrDeliveryFailure
		}
		if err := s.emailSender.SendOTP(ctx, identity, code, expiresAt); err != nil {
			if s.logger != nil {
				s.logger.Warn("send otp email failed", zap.Error(err), zap.String("identity", identity))
			}
			return ErrDeliveryFailure
		}
	case domain.IdentityPhone:
		if s.smsSender == nil {
			return ErrDeliveryFailure
		}
		if err := s.smsSender.SendOTP(ctx, identity, code); err != nil {
			if s.logger != nil {
				s.logger.Warn("send otp sms failed", zap.Error(err), zap.String("identity", identity))
			}
			return ErrDeliveryFailure
		}
	}

	return nil
}

// VerifyCode compara el codigo enviado contra el ultimo almacenado para la
// identidad. La comparacion es igualdad exacta de cadenas; la expiracion se
// almacena pero no se evalua aqui, y el codigo no se consume al verificar.
// Devuelve el visitante para que el orquestador decida el siguiente paso
// segun su estado facial.
func (s *OTPService) VerifyCode(ctx context.Context, rawIdentity, code string) (domain.Visitor, error) {
	if s.visitors == nil {
		return domain.Visitor{}, errors.New("otp service not configured")
	}

	identity, kind := domain.NormalizeIdentity(rawIdentity)
	if kind == domain.IdentityUnknown {
		return domain.Visitor{}, ErrInvalidIdentity
	}
	code = strings.TrimSpace(code)
	if !isValidCode(code) {
		return domain.Visitor{}, ErrOTPInvalid
	}

	visitor, err := s.visitors.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Visitor{}, ErrVisitorNotFound
		}
		return domain.Visitor{}, err
	}

	if visitor.OTPCode == "" {
		return domain.Visitor{}, ErrOTPNotRequested
	}
	if visitor.OTPCode != code {
		return domain.Visitor{}, ErrOTPInvalid
	}

	return visitor, nil
}

// generateCode produce un codigo en el rango 1000-9999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}

func isValidCode(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// OTPRateLimiter limita la frecuencia de solicitudes de OTP por clave.
type OTPRateLimiter interface {
	Allow(key string) bool
}

type otpRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewOTPRateLimiter crea un rate limiter en memoria.
func NewOTPRateLimiter(window time.Duration, max int) OTPRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &otpRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *otpRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	kept = append(kept, now)
	l.hits[key] = kept
	return true
}
