package domain

import "time"

// Admin es una cuenta del portal de administracion.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingApproval es la vista que el administrador revisa antes de
// aprobar o rechazar un registro facial.
type PendingApproval struct {
	Identity     string `json:"identity"`
	Name         string `json:"name"`
	FaceImageURL string `json:"face_image_url"`
}
