package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"visitorax/internal/domain"
)

type mockVisitorRepo struct {
	visitors map[string]domain.Visitor

	upsertErr error
	updateErr error
}

func newMockVisitorRepo() *mockVisitorRepo {
	return &mockVisitorRepo{visitors: make(map[string]domain.Visitor)}
}

func (m *mockVisitorRepo) GetByIdentity(_ context.Context, identity string) (domain.Visitor, error) {
	v, ok := m.visitors[identity]
	if !ok {
		return domain.Visitor{}, pgx.ErrNoRows
	}
	return v, nil
}

func (m *mockVisitorRepo) UpsertOTP(_ context.Context, identity, code string, expiresAt time.Time) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	v, ok := m.visitors[identity]
	if !ok {
		v = domain.Visitor{
			Identity:   identity,
			FaceStatus: domain.FaceStatusNone,
			CreatedAt:  time.Now().UTC(),
		}
	}
	v.OTPCode = code
	v.OTPExpiresAt = &expiresAt
	m.visitors[identity] = v
	return nil
}

func (m *mockVisitorRepo) UpdateEnrollment(_ context.Context, identity string, profile domain.Visitor, embedding pgvector.Vector, imageURL string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	v, ok := m.visitors[identity]
	if !ok {
		return pgx.ErrNoRows
	}
	v.Name = profile.Name
	v.Company = profile.Company
	v.Address = profile.Address
	v.DOB = profile.DOB
	v.FaceEmbedding = &embedding
	v.FaceImageURL = imageURL
	v.FaceStatus = domain.FaceStatusPending
	v.FaceRejectReason = ""
	m.visitors[identity] = v
	return nil
}

func (m *mockVisitorRepo) UpdateFaceStatus(_ context.Context, identity, status, reason string) error {
	v, ok := m.visitors[identity]
	if !ok {
		return pgx.ErrNoRows
	}
	v.FaceStatus = status
	v.FaceRejectReason = reason
	m.visitors[identity] = v
	return nil
}

func (m *mockVisitorRepo) ListPendingFaces(_ context.Context) ([]domain.PendingApproval, error) {
	var pending []domain.PendingApproval
	for _, v := range m.visitors {
		if v.FaceStatus == domain.FaceStatusPending {
			pending = append(pending, domain.PendingApproval{
				Identity:     v.Identity,
				Name:         v.Name,
				FaceImageURL: v.FaceImageURL,
			})
		}
	}
	return pending, nil
}

type mockVisitRepo struct {
	visits map[string]domain.VisitLog
}

func newMockVisitRepo() *mockVisitRepo {
	return &mockVisitRepo{visits: make(map[string]domain.VisitLog)}
}

func (m *mockVisitRepo) Create(_ context.Context, visit domain.VisitLog) error {
	m.visits[visit.ID] = visit
	return nil
}

func (m *mockVisitRepo) GetByID(_ context.Context, id string) (domain.VisitLog, error) {
	v, ok := m.visits[id]
	if !ok {
		return domain.VisitLog{}, pgx.ErrNoRows
	}
	return v, nil
}

func (m *mockVisitRepo) SetCheckIn(_ context.Context, id string, at time.Time) error {
	v, ok := m.visits[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if v.CheckIn == nil {
		v.CheckIn = &at
		m.visits[id] = v
	}
	return nil
}

func (m *mockVisitRepo) SetCheckOut(_ context.Context, id string, at time.Time) error {
	v, ok := m.visits[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if v.CheckOut == nil {
		v.CheckOut = &at
		m.visits[id] = v
	}
	return nil
}

func (m *mockVisitRepo) GetOpenByIdentity(_ context.Context, identity string) (domain.VisitLog, error) {
	var latest *domain.VisitLog
	for _, v := range m.visits {
		if v.Identity != identity || v.CheckOut != nil {
			continue
		}
		open := v
		if latest == nil || open.CreatedAt.After(latest.CreatedAt) {
			latest = &open
		}
	}
	if latest == nil {
		return domain.VisitLog{}, pgx.ErrNoRows
	}
	return *latest, nil
}

func (m *mockVisitRepo) ListAll(_ context.Context) ([]domain.VisitLog, error) {
	var all []domain.VisitLog
	for _, v := range m.visits {
		all = append(all, v)
	}
	return all, nil
}

type mockAdminRepo struct {
	admins map[string]domain.Admin
}

func newMockAdminRepo() *mockAdminRepo {
	return &mockAdminRepo{admins: make(map[string]domain.Admin)}
}

func (m *mockAdminRepo) GetByEmail(_ context.Context, email string) (domain.Admin, error) {
	a, ok := m.admins[email]
	if !ok {
		return domain.Admin{}, pgx.ErrNoRows
	}
	return a, nil
}

type mockEmailSender struct {
	sent []sentEmail
	err  error
}

type sentEmail struct {
	to   string
	code string
}

func (m *mockEmailSender) SendOTP(_ context.Context, toEmail, code string, _ time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: toEmail, code: code})
	return nil
}

type mockSMSSender struct {
	sent []sentEmail
	err  error
}

func (m *mockSMSSender) SendOTP(_ context.Context, toPhone, code string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: toPhone, code: code})
	return nil
}

type mockUploader struct {
	url string
	err error
}

func (m *mockUploader) UploadFacePhoto(_ context.Context, identity string, photo []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if len(photo) == 0 {
		return "", errors.New("empty photo")
	}
	if m.url != "" {
		return m.url, nil
	}
	return "https://media.example.com/" + identity + "/face.png", nil
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(string) bool { return true }

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }
