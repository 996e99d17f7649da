package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"visitorax/internal/domain"
)

type mockVisitorRepo struct {
	visitors map[string]domain.Visitor
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
	v, ok := m.visitors[identity]
	if !ok {
		v = domain.Visitor{Identity: identity, FaceStatus: domain.FaceStatusNone, CreatedAt: time.Now().UTC()}
	}
	v.OTPCode = code
	v.OTPExpiresAt = &expiresAt
	m.visitors[identity] = v
	return nil
}

func (m *mockVisitorRepo) UpdateEnrollment(_ context.Context, identity string, profile domain.Visitor, embedding pgvector.Vector, imageURL string) error {
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
	var out []domain.PendingApproval
	for _, v := range m.visitors {
		if v.FaceStatus == domain.FaceStatusPending {
			out = append(out, domain.PendingApproval{
				Identity:     v.Identity,
				Name:         v.Name,
				FaceImageURL: v.FaceImageURL,
			})
		}
	}
	return out, nil
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
	v.CheckIn = &at
	m.visits[id] = v
	return nil
}

func (m *mockVisitRepo) SetCheckOut(_ context.Context, id string, at time.Time) error {
	v, ok := m.visits[id]
	if !ok {
		return pgx.ErrNoRows
	}
	v.CheckOut = &at
	m.visits[id] = v
	return nil
}

func (m *mockVisitRepo) GetOpenByIdentity(_ context.Context, identity string) (domain.VisitLog, error) {
	for _, v := range m.visits {
		if v.Identity == identity && v.CheckOut == nil {
			return v, nil
		}
	}
	return domain.VisitLog{}, pgx.ErrNoRows
}

func (m *mockVisitRepo) ListAll(_ context.Context) ([]domain.VisitLog, error) {
	out := make([]domain.VisitLog, 0, len(m.visits))
	for _, v := range m.visits {
		out = append(out, v)
	}
	return out, nil
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
	lastTo   string
	lastCode string
	err      error
}

func (m *mockEmailSender) SendOTP(_ context.Context, toEmail string, code string, _ time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.lastTo = toEmail
	m.lastCode = code
	return nil
}

type mockSMSSender struct {
	lastTo   string
	lastCode string
	err      error
}

func (m *mockSMSSender) SendOTP(_ context.Context, toPhone string, code string) error {
	if m.err != nil {
		return m.err
	}
	m.lastTo = toPhone
	m.lastCode = code
	return nil
}

type mockUploader struct {
	url string
	err error
}

func (m *mockUploader) UploadFacePhoto(_ context.Context, _ string, _ []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.url == "" {
		return "https://cdn.example.com/face.jpg", nil
	}
	return m.url, nil
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func performAuthedRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return out
}
