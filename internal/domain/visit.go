package domain

import "time"

// Propositos validos de una reserva de visita.
const (
	PurposeVisit     = "visit"
	PurposePitch     = "pitch"
	PurposeInterview = "interview"
	PurposeTech      = "tech"
)

// ValidPurpose verifica que el proposito pertenezca al conjunto conocido.
func ValidPurpose(p string) bool {
	switch p {
	case PurposeVisit, PurposePitch, PurposeInterview, PurposeTech:
		return true
	}
	return false
}

// VisitLog es una reserva de visita con sellos de entrada y salida.
// check_in y check_out quedan en nil hasta que el visitante los marca.
type VisitLog struct {
	ID        string     `json:"id"`
	Identity  string     `json:"identity"`
	Name      string     `json:"name"`
	Company   string     `json:"company"`
	HostName  string     `json:"host_name"`
	HostEmail string     `json:"host_email,omitempty"`
	Purpose   string     `json:"purpose"`
	CreatedAt time.Time  `json:"created_at"`
	CheckIn   *time.Time `json:"check_in,omitempty"`
	CheckOut  *time.Time `json:"check_out,omitempty"`
}

// Open indica si la visita sigue abierta (sin check-out).
func (v VisitLog) Open() bool {
	return v.CheckOut == nil
}
