package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"visitorax/internal/domain"
)

var (
	ErrSessionInvalid = errors.New("session token invalid")
	ErrSessionExpired = errors.New("session token expired")
)

// Roles que distingue el token de sesion.
const (
	RoleVisitor = "visitor"
	RoleAdmin   = "admin"
)

// SessionService emite y valida tokens de sesion firmados. El token del
// visitante es la unica prueba de login y vive solo del lado del cliente:
// el servidor no persiste sesiones de visitante.
type SessionService struct {
	secret     []byte
	visitorTTL time.Duration
	adminTTL   time.Duration
	issuer     string
}

// SessionClaims transporta la identidad y el momento de emision.
type SessionClaims struct {
	Identity string `json:"identity"`
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func NewSessionService(secret string, visitorTTL, adminTTL time.Duration) *SessionService {
	if visitorTTL <= 0 {
		visitorTTL = 10 * time.Minute
	}
	if adminTTL <= 0 {
		adminTTL = time.Hour
	}
	return &SessionService{
		secret:     []byte(secret),
		visitorTTL: visitorTTL,
		adminTTL:   adminTTL,
		issuer:     "visitorax",
	}
}

// IssueVisitor firma un token de visitante con validez de diez minutos.
func (s *SessionService) IssueVisitor(identity string) (string, error) {
	return s.sign(identity, "", RoleVisitor, s.visitorTTL)
}

// IssueAdmin firma un token del portal de administracion.
func (s *SessionService) IssueAdmin(admin domain.Admin) (string, error) {
	return s.sign(admin.Email, admin.Name, RoleAdmin, s.adminTTL)
}

// ParseVisitor valida un token de visitante. Un token con mas de diez
// minutos de emitido siempre es invalido y el cliente debe descartarlo.
func (s *SessionService) ParseVisitor(token string) (SessionClaims, error) {
	return s.parse(token, RoleVisitor, s.visitorTTL)
}

// ParseAdmin valida un token de administrador.
func (s *SessionService) ParseAdmin(token string) (SessionClaims, error) {
	return s.parse(token, RoleAdmin, s.adminTTL)
}

func (s *SessionService) sign(identity, name, role string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrSessionInvalid
	}
	if strings.TrimSpace(identity) == "" {
		return "", ErrSessionInvalid
	}
	now := time.Now().UTC()
	claims := SessionClaims{
		Identity: identity,
		Role:     role,
		Name:     name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *SessionService) parse(tokenString, role string, ttl time.Duration) (SessionClaims, error) {
	if len(s.secret) == 0 {
		return SessionClaims{}, ErrSessionInvalid
	}
	if strings.TrimSpace(tokenString) == "" {
		return SessionClaims{}, ErrSessionInvalid
	}

	var claims SessionClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrSessionExpired
		}
		return SessionClaims{}, ErrSessionInvalid
	}

	if claims.Role != role {
		return SessionClaims{}, ErrSessionInvalid
	}
	if strings.TrimSpace(claims.Identity) == "" || claims.Subject != claims.Identity {
		return SessionClaims{}, ErrSessionInvalid
	}
	if claims.Issuer != s.issuer {
		return SessionClaims{}, ErrSessionInvalid
	}
	// La edad del token se valida contra iat, independiente de exp.
	if claims.IssuedAt == nil || time.Since(claims.IssuedAt.Time) >= ttl {
		return SessionClaims{}, ErrSessionExpired
	}
	return claims, nil
}
