// Package flow modela el recorrido de autenticacion del visitante como una
// maquina de estados explicita. Next es la unica superficie de mutacion:
// los handlers nunca cambian de paso por su cuenta.
package flow

import (
	"errors"
	"fmt"

	"visitorax/internal/domain"
)

// Step es el paso activo del recorrido.
type Step string

const (
	StepEmail         Step = "email"
	StepOTP           Step = "otp"
	StepDetails       Step = "details"
	StepFaceCapture   Step = "face_capture"
	StepFaceVerify    Step = "face_verify"
	StepAuthenticated Step = "authenticated"
)

var (
	// ErrBlockedPending bloquea el avance sin cambiar de paso: el
	// registro facial espera accion del administrador.
	ErrBlockedPending = errors.New("face record pending approval")
	ErrBadTransition  = errors.New("invalid flow transition")
)

// Event es la union etiquetada de sucesos que mueven la maquina.
type Event interface{ isEvent() }

// CodeSent: el OTP fue despachado a la identidad.
type CodeSent struct{}

// CodeVerified: el codigo coincidio; trae el estado facial del servidor.
type CodeVerified struct {
	FaceStatus   string
	RejectReason string
}

// DetailsCompleted: los cuatro campos del perfil quedaron llenos.
type DetailsCompleted struct{}

// EnrollmentFinalized: embedding y foto persistidos, estado pending.
type EnrollmentFinalized struct{}

// FaceMatched: la verificacion en vivo coincidio con la referencia.
type FaceMatched struct{}

func (CodeSent) isEvent()            {}
func (CodeVerified) isEvent()        {}
func (DetailsCompleted) isEvent()    {}
func (EnrollmentFinalized) isEvent() {}
func (FaceMatched) isEvent()         {}

// Result es el paso resultante mas un mensaje para el visitante (hoy solo
// el motivo de rechazo que acompaña el regreso a details).
type Result struct {
	Step    Step
	Message string
}

// Next aplica un evento sobre el paso actual y devuelve el siguiente.
// Las transiciones siguen estrictamente el recorrido lineal:
// email -> otp -> {face_verify | details -> face_capture} -> authenticated.
func Next(current Step, event Event) (Result, error) {
	switch ev := event.(type) {
	case CodeSent:
		if current != StepEmail {
			return Result{}, badTransition(current, event)
		}
		return Result{Step: StepOTP}, nil

	case CodeVerified:
		if current != StepOTP {
			return Result{}, badTransition(current, event)
		}
		switch ev.FaceStatus {
		case domain.FaceStatusApproved:
			return Result{Step: StepFaceVerify}, nil
		case domain.FaceStatusPending:
			// Sin transicion: el visitante permanece en otp.
			return Result{Step: StepOTP}, ErrBlockedPending
		case domain.FaceStatusRejected:
			reason := ev.RejectReason
			if reason == "" {
				reason = "No reason provided."
			}
			msg := fmt.Sprintf("Your face ID was rejected. Reason: %s Please capture a new photo.", reason)
			return Result{Step: StepDetails, Message: msg}, nil
		default:
			return Result{Step: StepDetails, Message: "Please complete your profile."}, nil
		}

	case DetailsCompleted:
		if current != StepDetails {
			return Result{}, badTransition(current, event)
		}
		return Result{Step: StepFaceCapture}, nil

	case EnrollmentFinalized:
		if current != StepFaceCapture {
			return Result{}, badTransition(current, event)
		}
		return Result{Step: StepAuthenticated}, nil

	case FaceMatched:
		if current != StepFaceVerify {
			return Result{}, badTransition(current, event)
		}
		return Result{Step: StepAuthenticated}, nil
	}
	return Result{}, badTransition(current, event)
}

func badTransition(current Step, event Event) error {
	return fmt.Errorf("%w: %T in step %s", ErrBadTransition, event, current)
}
