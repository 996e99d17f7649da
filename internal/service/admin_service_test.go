package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"visitorax/internal/domain"
)

func newAdminFixture(t *testing.T) (*AdminService, *mockVisitorRepo) {
	t.Helper()
	admins := newMockAdminRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	admins.admins["root@x.com"] = domain.Admin{
		ID:           "adm-1",
		Email:        "root@x.com",
		PasswordHash: string(hash),
	}
	visitors := newMockVisitorRepo()
	return NewAdminService(zap.NewNop(), admins, visitors), visitors
}

func TestAdminAuthenticate(t *testing.T) {
	svc, _ := newAdminFixture(t)
	ctx := context.Background()

	admin, err := svc.Authenticate(ctx, "Root@X.com ", "s3cret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if admin.ID != "adm-1" {
		t.Fatalf("unexpected admin: %+v", admin)
	}

	if _, err := svc.Authenticate(ctx, "root@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ghost@x.com", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown admin must be ErrInvalidCredentials, got %v", err)
	}
}

func TestAdminApprove(t *testing.T) {
	svc, visitors := newAdminFixture(t)
	visitors.visitors["a@x.com"] = domain.Visitor{
		Identity:   "a@x.com",
		Name:       "Ada",
		FaceStatus: domain.FaceStatusPending,
	}
	ctx := context.Background()

	pending, err := svc.ListPending(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("list pending: %v, %v", pending, err)
	}

	if err := svc.Approve(ctx, "a@x.com"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if visitors.visitors["a@x.com"].FaceStatus != domain.FaceStatusApproved {
		t.Fatalf("status must be approved")
	}

	// Ya no esta pending: una segunda aprobacion es invalida.
	if err := svc.Approve(ctx, "a@x.com"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestAdminReject_StoresReason(t *testing.T) {
	svc, visitors := newAdminFixture(t)
	visitors.visitors["a@x.com"] = domain.Visitor{
		Identity:   "a@x.com",
		FaceStatus: domain.FaceStatusPending,
	}
	ctx := context.Background()

	if err := svc.Reject(ctx, "a@x.com", "blurry"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	v := visitors.visitors["a@x.com"]
	if v.FaceStatus != domain.FaceStatusRejected || v.FaceRejectReason != "blurry" {
		t.Fatalf("rejection not persisted: %+v", v)
	}
}

func TestAdminReject_DefaultReason(t *testing.T) {
	svc, visitors := newAdminFixture(t)
	visitors.visitors["a@x.com"] = domain.Visitor{
		Identity:   "a@x.com",
		FaceStatus: domain.FaceStatusPending,
	}

	if err := svc.Reject(context.Background(), "a@x.com", "  "); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if visitors.visitors["a@x.com"].FaceRejectReason != "No reason provided." {
		t.Fatalf("missing fallback reason")
	}
}

func TestAdminApprove_UnknownVisitor(t *testing.T) {
	svc, _ := newAdminFixture(t)
	if err := svc.Approve(context.Background(), "ghost@x.com"); !errors.Is(err, ErrVisitorNotFound) {
		t.Fatalf("expected ErrVisitorNotFound, got %v", err)
	}
}
