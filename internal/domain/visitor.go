package domain

import (
	"strings"
	"time"

	pgvector "github.com/pgvector/pgvector-go"
)

// Estados del registro facial de un visitante. El administrador es la
// unica autoridad que mueve pending hacia approved o rejected.
const (
	FaceStatusNone     = "none"
	FaceStatusPending  = "pending"
	FaceStatusApproved = "approved"
	FaceStatusRejected = "rejected"
)

// Visitor es el registro por identidad: perfil, OTP vigente y registro facial.
// La identidad (email o telefono) es la clave primaria y no cambia una vez
// iniciado un ciclo de OTP.
type Visitor struct {
	Identity string `json:"identity"`

	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Address string `json:"address,omitempty"`
	DOB     string `json:"dob,omitempty"`

	OTPCode      string     `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	FaceStatus       string           `json:"face_status"`
	FaceImageURL     string           `json:"face_image_url,omitempty"`
	FaceEmbedding    *pgvector.Vector `json:"-"`
	FaceRejectReason string           `json:"face_reject_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ProfileComplete indica si los cuatro campos obligatorios estan llenos.
func (v Visitor) ProfileComplete() bool {
	return strings.TrimSpace(v.Name) != "" &&
		strings.TrimSpace(v.Company) != "" &&
		strings.TrimSpace(v.Address) != "" &&
		strings.TrimSpace(v.DOB) != ""
}

// IdentityKind clasifica una identidad segun su forma.
type IdentityKind int

const (
	IdentityUnknown IdentityKind = iota
	IdentityEmail
	IdentityPhone
)

// NormalizeIdentity limpia y clasifica una identidad de contacto.
// Un email se lleva a minusculas; un telefono conserva el formato E.164.
func NormalizeIdentity(raw string) (string, IdentityKind) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", IdentityUnknown
	}
	if strings.Contains(s, "@") {
		at := strings.LastIndex(s, "@")
		if at == 0 || at == len(s)-1 || !strings.Contains(s[at+1:], ".") {
			return "", IdentityUnknown
		}
		return strings.ToLower(s), IdentityEmail
	}
	if !strings.HasPrefix(s, "+") || len(s) < 8 {
		return "", IdentityUnknown
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return "", IdentityUnknown
		}
	}
	return s, IdentityPhone
}
