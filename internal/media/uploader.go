package media

import (
	"context"
	"errors"
)

// Uploader define la interfaz para subir la foto fija del registro facial
// y obtener su URL publica.
type Uploader interface {
	UploadFacePhoto(ctx context.Context, identity string, photo []byte) (string, error)
}

type disabledUploader struct {
	reason string
}

func NewDisabledUploader(reason string) Uploader {
	return &disabledUploader{reason: reason}
}

func (u *disabledUploader) UploadFacePhoto(_ context.Context, _ string, _ []byte) (string, error) {
	if u.reason == "" {
		return "", errors.New("media uploader disabled")
	}
	return "", errors.New(u.reason)
}
