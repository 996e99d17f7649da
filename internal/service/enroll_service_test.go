package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"visitorax/internal/domain"
	"visitorax/internal/face"
)

func validEnrollmentInput() EnrollmentInput {
	return EnrollmentInput{
		Name:      "Ada Lovelace",
		Company:   "Analytical Engines",
		Address:   "12 St James Square",
		DOB:       "1815-12-10",
		Embedding: make([]float32, face.Dimension),
		Photo:     []byte("png-bytes"),
	}
}

func seededRepo(identity string) *mockVisitorRepo {
	repo := newMockVisitorRepo()
	repo.visitors[identity] = domain.Visitor{
		Identity:   identity,
		OTPCode:    "1234",
		FaceStatus: domain.FaceStatusNone,
	}
	return repo
}

func TestFinalize_SetsPendingWithPhotoAndEmbedding(t *testing.T) {
	repo := seededRepo("a@x.com")
	svc := NewEnrollmentService(zap.NewNop(), repo, &mockUploader{})

	visitor, err := svc.Finalize(context.Background(), "a@x.com", validEnrollmentInput())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if visitor.FaceStatus != domain.FaceStatusPending {
		t.Fatalf("expected pending, got %s", visitor.FaceStatus)
	}
	if visitor.FaceImageURL == "" || visitor.FaceEmbedding == nil {
		t.Fatalf("photo url and embedding must be persisted")
	}
	if !visitor.ProfileComplete() {
		t.Fatalf("profile must be complete after finalize")
	}
}

func TestFinalize_IncompleteProfileRejected(t *testing.T) {
	repo := seededRepo("a@x.com")
	svc := NewEnrollmentService(zap.NewNop(), repo, &mockUploader{})

	fields := []func(*EnrollmentInput){
		func(in *EnrollmentInput) { in.Name = "" },
		func(in *EnrollmentInput) { in.Company = " " },
		func(in *EnrollmentInput) { in.Address = "" },
		func(in *EnrollmentInput) { in.DOB = "" },
	}
	for i, clear := range fields {
		input := validEnrollmentInput()
		clear(&input)
		if _, err := svc.Finalize(context.Background(), "a@x.com", input); !errors.Is(err, ErrProfileIncomplete) {
			t.Fatalf("field %d: expected ErrProfileIncomplete, got %v", i, err)
		}
	}
	if repo.visitors["a@x.com"].FaceStatus != domain.FaceStatusNone {
		t.Fatalf("status must not advance on validation failure")
	}
}

func TestFinalize_PhotoRequired(t *testing.T) {
	svc := NewEnrollmentService(zap.NewNop(), seededRepo("a@x.com"), &mockUploader{})
	input := validEnrollmentInput()
	input.Photo = nil
	if _, err := svc.Finalize(context.Background(), "a@x.com", input); !errors.Is(err, ErrPhotoRequired) {
		t.Fatalf("expected ErrPhotoRequired, got %v", err)
	}
}

func TestFinalize_BadEmbedding(t *testing.T) {
	svc := NewEnrollmentService(zap.NewNop(), seededRepo("a@x.com"), &mockUploader{})
	input := validEnrollmentInput()
	input.Embedding = make([]float32, 16)
	if _, err := svc.Finalize(context.Background(), "a@x.com", input); !errors.Is(err, ErrBadEmbedding) {
		t.Fatalf("expected ErrBadEmbedding, got %v", err)
	}
}

func TestFinalize_UploadFailureKeepsStatus(t *testing.T) {
	repo := seededRepo("a@x.com")
	svc := NewEnrollmentService(zap.NewNop(), repo, &mockUploader{err: errors.New("storage down")})

	if _, err := svc.Finalize(context.Background(), "a@x.com", validEnrollmentInput()); !errors.Is(err, ErrUploadFailure) {
		t.Fatalf("expected ErrUploadFailure, got %v", err)
	}
	if repo.visitors["a@x.com"].FaceStatus != domain.FaceStatusNone {
		t.Fatalf("status must not advance to pending when upload fails")
	}
}

func TestFinalize_PersistFailure(t *testing.T) {
	repo := seededRepo("a@x.com")
	repo.updateErr = errors.New("db down")
	svc := NewEnrollmentService(zap.NewNop(), repo, &mockUploader{})

	if _, err := svc.Finalize(context.Background(), "a@x.com", validEnrollmentInput()); !errors.Is(err, ErrPersistFailure) {
		t.Fatalf("expected ErrPersistFailure, got %v", err)
	}
}

func TestFinalize_UnknownVisitor(t *testing.T) {
	svc := NewEnrollmentService(zap.NewNop(), newMockVisitorRepo(), &mockUploader{})
	if _, err := svc.Finalize(context.Background(), "a@x.com", validEnrollmentInput()); !errors.Is(err, ErrVisitorNotFound) {
		t.Fatalf("expected ErrVisitorNotFound, got %v", err)
	}
}

func TestFinalize_RecaptureAfterRejection(t *testing.T) {
	repo := newMockVisitorRepo()
	repo.visitors["a@x.com"] = domain.Visitor{
		Identity:         "a@x.com",
		FaceStatus:       domain.FaceStatusRejected,
		FaceRejectReason: "blurry",
	}
	svc := NewEnrollmentService(zap.NewNop(), repo, &mockUploader{})

	visitor, err := svc.Finalize(context.Background(), "a@x.com", validEnrollmentInput())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if visitor.FaceStatus != domain.FaceStatusPending {
		t.Fatalf("recapture must move rejected back to pending")
	}
	if visitor.FaceRejectReason != "" {
		t.Fatalf("rejection reason must be cleared on recapture")
	}
}
