package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader sube fotos de registro facial a Cloudinary.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(cloudName, apiKey, apiSecret, folder string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	if strings.TrimSpace(folder) == "" {
		folder = "user_faces"
	}
	return &CloudinaryUploader{cld: cld, folder: folder}, nil
}

// UploadFacePhoto sube la imagen con un public_id fijo por identidad, de
// modo que una recaptura reemplaza la foto anterior (upsert).
func (u *CloudinaryUploader) UploadFacePhoto(ctx context.Context, identity string, photo []byte) (string, error) {
	if len(photo) == 0 {
		return "", fmt.Errorf("photo is empty")
	}
	overwrite := true
	result, err := u.cld.Upload.Upload(ctx, bytes.NewReader(photo), uploader.UploadParams{
		Folder:       u.folder,
		PublicID:     publicIDFor(identity),
		Overwrite:    &overwrite,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("upload face photo: %w", err)
	}
	return result.SecureURL, nil
}

// publicIDFor deriva un identificador estable y seguro para rutas.
func publicIDFor(identity string) string {
	replacer := strings.NewReplacer("@", "_at_", "+", "", ".", "_", "/", "_")
	return replacer.Replace(identity) + "_face"
}
