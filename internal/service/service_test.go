package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"confreg/internal/api/api"
	"confreg/internal/dto"
	"confreg/internal/model"
	"confreg/internal/repo"
	"confreg/internal/service"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

// --- mocks ---

type fakeRepo struct {
	mu           sync.Mutex
	nextID       int64
	participants map[string]*model.Participant
	payments     map[string]*model.Payment
	certs        map[string]*model.Certificate
	sessions     []model.ConferenceSession
	sessionRegs  []*model.SessionRegistration
	feedback     []*model.Feedback
	countErr     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		participants: make(map[string]*model.Participant),
		payments:     make(map[string]*model.Payment),
		certs:        make(map[string]*model.Certificate),
	}
}

func (f *fakeRepo) RegisterParticipantTx(_ context.Context, p *model.Participant, pay *model.Payment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.participants {
		if existing.Email == p.Email {
			return "", repo.ErrDuplicateEmail
		}
	}
	f.nextID++
	p.ID = f.nextID
	p.RegistrationDate = time.Now()
	f.participants[p.RegistrationID] = p

	pay.ParticipantID = p.ID
	pay.Status = model.PaymentPending
	f.payments[p.RegistrationID] = pay
	return p.RegistrationID, nil
}

func (f *fakeRepo) GetParticipantByRegistrationID(_ context.Context, regID string) (*model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.participants[regID]
	if !ok {
		return nil, repo.ErrParticipantNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListParticipants(_ context.Context) ([]model.ParticipantSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ParticipantSummary
	for regID, p := range f.participants {
		status := "no_payment"
		if pay, ok := f.payments[regID]; ok {
			status = string(pay.Status)
		}
		out = append(out, model.ParticipantSummary{
			ID:             p.ID,
			Name:           p.FirstName + " " + p.LastName,
			Email:          p.Email,
			RegistrationID: regID,
			PaymentStatus:  status,
		})
	}
	return out, nil
}

func (f *fakeRepo) UpdatePaymentStatus(_ context.Context, regID string, status model.PaymentStatus, transactionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pay, ok := f.payments[regID]
	if !ok {
		return repo.ErrPaymentNotFound
	}
	pay.Status = status
	pay.TransactionID = transactionID
	now := time.Now()
	pay.PaymentDate = &now
	return nil
}

func (f *fakeRepo) CreateCertificate(_ context.Context, c *model.Certificate) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	c.IssueDate = time.Now()
	f.certs[c.Code] = c
	return c.ID, nil
}

func (f *fakeRepo) TouchCertificateDownload(_ context.Context, code string) (*model.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.certs[code]
	if !ok || c.Revoked {
		return nil, repo.ErrCertificateNotFound
	}
	c.DownloadCount++
	now := time.Now()
	c.LastDownloaded = &now
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) ListSessions(_ context.Context) ([]model.ConferenceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions, nil
}

func (f *fakeRepo) CountSessionRegistrations(_ context.Context, sessionID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	count := 0
	for _, r := range f.sessionRegs {
		if r.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) CreateSessionRegistration(_ context.Context, reg *model.SessionRegistration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	reg.ID = f.nextID
	reg.RegisteredAt = time.Now()
	f.sessionRegs = append(f.sessionRegs, reg)
	return reg.ID, nil
}

func (f *fakeRepo) CreateFeedback(_ context.Context, fb *model.Feedback) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	fb.ID = f.nextID
	fb.SubmittedAt = time.Now()
	f.feedback = append(f.feedback, fb)
	return fb.ID, nil
}

func (f *fakeRepo) MarkAttendance(_ context.Context, sessionID, participantID int64, attended bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.sessionRegs {
		if r.SessionID == sessionID && r.ParticipantID == participantID {
			r.Attended = attended
			return nil
		}
	}
	return repo.ErrRegistrationNotFound
}

func (f *fakeRepo) MigrateUp(string) error { return nil }

type fakePublisher struct {
	mu       sync.Mutex
	messages []dto.NotificationMessage
}

func (p *fakePublisher) Publish(message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var msg dto.NotificationMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakePublisher) byType(typ string) []dto.NotificationMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []dto.NotificationMessage
	for _, m := range p.messages {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

type fakeCerts struct {
	dir string
}

func (f *fakeCerts) PathFor(code string) string {
	return filepath.Join(f.dir, code+".pdf")
}

func (f *fakeCerts) Generate(_ *model.Participant, code string) (string, error) {
	path := f.PathFor(code)
	return path, os.WriteFile(path, []byte("%PDF-stub"), 0o644)
}

func (f *fakeCerts) GenerateQR(registrationID string) (string, error) {
	path := filepath.Join(f.dir, registrationID+".png")
	return path, os.WriteFile(path, []byte("png-stub"), 0o644)
}

// --- helpers ---

type env struct {
	repo      *fakeRepo
	publisher *fakePublisher
	router    http.Handler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zlog.Logger
	r := newFakeRepo()
	p := &fakePublisher{}
	svc := service.NewService(r, &log, p, &fakeCerts{dir: t.TempDir()})
	return &env{repo: r, publisher: p, router: api.NewRouters(&api.Routers{Service: svc})}
}

type envelope struct {
	Status string          `json:"status"`
	Error  *dto.Error      `json:"error,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

func (e *env) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp envelope
	if ct := w.Header().Get("Content-Type"); w.Body.Len() > 0 && strings.HasPrefix(ct, "application/json") {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func registerBody(email string) map[string]any {
	return map[string]any{
		"first_name":      "Ada",
		"last_name":       "Lovelace",
		"email":           email,
		"member_type":     "professional",
		"attendance_type": "in_person",
		"payment_amount":  250.50,
		"payment_method":  "credit_card",
	}
}

func (e *env) register(t *testing.T, email string) string {
	t.Helper()
	w, resp := e.do(t, http.MethodPost, "/v1/register", registerBody(email))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data dto.RegisterResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.RegistrationID)
	return data.RegistrationID
}

// --- tests ---

func TestRegisterCreatesParticipantAndPendingPayment(t *testing.T) {
	e := newEnv(t)

	regID := e.register(t, "ada@example.com")

	p := e.repo.participants[regID]
	require.NotNil(t, p)
	assert.Equal(t, model.MemberProfessional, p.MemberType)
	assert.Equal(t, model.AttendanceInPerson, p.AttendanceType)

	pay := e.repo.payments[regID]
	require.NotNil(t, pay)
	assert.Equal(t, model.PaymentPending, pay.Status)
	assert.Equal(t, 250.50, pay.Amount)

	created := e.publisher.byType(dto.NotifyRegistrationCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "ada@example.com", created[0].Email)
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	e := newEnv(t)

	first := e.register(t, "ada@example.com")

	w, resp := e.do(t, http.MethodPost, "/v1/register", registerBody("ada@example.com"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.EmailDuplicate, resp.Error.Code)

	// first registration stays intact
	assert.Len(t, e.repo.participants, 1)
	assert.Equal(t, "Ada", e.repo.participants[first].FirstName)
}

func TestRegisterRejectsUnknownEnums(t *testing.T) {
	e := newEnv(t)

	body := registerBody("vip@example.com")
	body["member_type"] = "vip"
	w, resp := e.do(t, http.MethodPost, "/v1/register", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.FieldIncorrect, resp.Error.Code)

	body = registerBody("remote@example.com")
	body["attendance_type"] = "remote"
	w, _ = e.do(t, http.MethodPost, "/v1/register", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	e := newEnv(t)

	body := registerBody("")
	delete(body, "email")
	w, _ := e.do(t, http.MethodPost, "/v1/register", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, e.repo.participants)
}

func TestRegisterRejectsNonPositiveAmount(t *testing.T) {
	e := newEnv(t)

	body := registerBody("ada@example.com")
	body["payment_amount"] = -10.0
	w, resp := e.do(t, http.MethodPost, "/v1/register", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.FieldIncorrect, resp.Error.Code)
	assert.Empty(t, e.repo.participants)
}

func TestPaymentTransitionsAreUnconditional(t *testing.T) {
	e := newEnv(t)
	regID := e.register(t, "ada@example.com")

	// any status may follow any other
	for _, status := range []string{"completed", "refunded", "pending", "failed", "completed"} {
		w, _ := e.do(t, http.MethodPut, "/v1/payments/"+regID, map[string]any{
			"status":         status,
			"transaction_id": "txn-" + status,
		})
		assert.Equal(t, http.StatusOK, w.Code, status)
		assert.Equal(t, model.PaymentStatus(status), e.repo.payments[regID].Status)
	}

	completed := e.publisher.byType(dto.NotifyPaymentCompleted)
	assert.Len(t, completed, 2)
}

func TestPaymentUnknownStatusRejected(t *testing.T) {
	e := newEnv(t)
	regID := e.register(t, "ada@example.com")

	w, resp := e.do(t, http.MethodPut, "/v1/payments/"+regID, map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.FieldIncorrect, resp.Error.Code)
	assert.Equal(t, model.PaymentPending, e.repo.payments[regID].Status)
}

func TestPaymentNotFound(t *testing.T) {
	e := newEnv(t)

	w, resp := e.do(t, http.MethodPut, "/v1/payments/unknown-reg", map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.PaymentNotFound, resp.Error.Code)
}

func TestCertificateLifecycle(t *testing.T) {
	e := newEnv(t)
	regID := e.register(t, "ada@example.com")

	w, resp := e.do(t, http.MethodPost, "/v1/certificates/"+regID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data dto.CertificateResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.CertificateCode)

	issued := e.publisher.byType(dto.NotifyCertificateIssued)
	require.Len(t, issued, 1)
	assert.Equal(t, data.CertificateCode, issued[0].CertificateCode)

	// two downloads bump the counter to exactly two
	for i := 1; i <= 2; i++ {
		w, _ := e.do(t, http.MethodGet, "/v1/certificates/download/"+data.CertificateCode, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Equal(t, i, e.repo.certs[data.CertificateCode].DownloadCount)
	}
}

func TestCertificateGenerationIsNotIdempotent(t *testing.T) {
	e := newEnv(t)
	regID := e.register(t, "ada@example.com")

	_, first := e.do(t, http.MethodPost, "/v1/certificates/"+regID, nil)
	_, second := e.do(t, http.MethodPost, "/v1/certificates/"+regID, nil)

	var a, b dto.CertificateResponse
	require.NoError(t, json.Unmarshal(first.Data, &a))
	require.NoError(t, json.Unmarshal(second.Data, &b))
	assert.NotEqual(t, a.CertificateCode, b.CertificateCode)
	assert.Len(t, e.repo.certs, 2)
}

func TestCertificateUnknownParticipant(t *testing.T) {
	e := newEnv(t)

	w, resp := e.do(t, http.MethodPost, "/v1/certificates/unknown-reg", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ParticipantNotFound, resp.Error.Code)
}

func TestCertificateDownloadRevokedOrMissing(t *testing.T) {
	e := newEnv(t)
	regID := e.register(t, "ada@example.com")

	_, resp := e.do(t, http.MethodPost, "/v1/certificates/"+regID, nil)
	var data dto.CertificateResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))

	e.repo.certs[data.CertificateCode].Revoked = true

	// revoked and nonexistent codes are indistinguishable
	for _, code := range []string{data.CertificateCode, "never-issued"} {
		w, resp := e.do(t, http.MethodGet, "/v1/certificates/download/"+code, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.CertificateNotFound, resp.Error.Code)
	}
	assert.Equal(t, 0, e.repo.certs[data.CertificateCode].DownloadCount)
}

func TestSessionSeatsGoNegativeWithoutCapacityGuard(t *testing.T) {
	e := newEnv(t)
	e.repo.sessions = []model.ConferenceSession{{
		ID:          7,
		Title:       "Deep Mining Panel",
		Speaker:     "Dr. Stone",
		SessionDate: time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		StartTime:   time.Date(0, 1, 1, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(0, 1, 1, 10, 30, 0, 0, time.UTC),
		MaxCapacity: 1,
	}}

	for i := 0; i < 3; i++ {
		w, _ := e.do(t, http.MethodPost, "/v1/sessions/7/register", map[string]any{
			"participant_id": int64(100 + i),
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, resp := e.do(t, http.MethodGet, "/v1/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var sessions []dto.SessionResponse
	require.NoError(t, json.Unmarshal(resp.Data, &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, -2, sessions[0].AvailableSeats)
	assert.Equal(t, "2026-09-14", sessions[0].Date)
	assert.Equal(t, "09:00:00", sessions[0].StartTime)
}

func TestListSessionsFailsWhenCountFails(t *testing.T) {
	e := newEnv(t)
	e.repo.sessions = []model.ConferenceSession{{
		ID:          7,
		Title:       "Deep Mining Panel",
		SessionDate: time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		StartTime:   time.Date(0, 1, 1, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(0, 1, 1, 10, 30, 0, 0, time.UTC),
		MaxCapacity: 10,
	}}
	e.repo.countErr = errors.New("connection reset")

	// a failed count fails the whole listing rather than dropping rows
	w, resp := e.do(t, http.MethodGet, "/v1/sessions", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ServiceUnavailable, resp.Error.Code)
}

func TestSubmitFeedback(t *testing.T) {
	e := newEnv(t)

	w, _ := e.do(t, http.MethodPost, "/v1/feedback", map[string]any{
		"participant_id": 1,
		"session_id":     7,
		"rating":         5,
		"comments":       "great talk",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, e.repo.feedback, 1)
	assert.Equal(t, 5, e.repo.feedback[0].Rating)
}

func TestMarkAttendance(t *testing.T) {
	e := newEnv(t)
	e.repo.sessionRegs = []*model.SessionRegistration{{ID: 1, ParticipantID: 42, SessionID: 7}}

	w, _ := e.do(t, http.MethodPut, "/v1/admin/sessions/7/attendance", map[string]any{
		"participant_id": 42,
		"attended":       true,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, e.repo.sessionRegs[0].Attended)

	w, resp := e.do(t, http.MethodPut, "/v1/admin/sessions/7/attendance", map[string]any{
		"participant_id": 99,
		"attended":       true,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.RegistrationNotFound, resp.Error.Code)
}

func TestListParticipantsWithPaymentStatus(t *testing.T) {
	e := newEnv(t)
	regID := e.register(t, "ada@example.com")

	w, resp := e.do(t, http.MethodGet, "/v1/admin/participants", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var participants []model.ParticipantSummary
	require.NoError(t, json.Unmarshal(resp.Data, &participants))
	require.Len(t, participants, 1)
	assert.Equal(t, "Ada Lovelace", participants[0].Name)
	assert.Equal(t, regID, participants[0].RegistrationID)
	assert.Equal(t, "pending", participants[0].PaymentStatus)
}

func TestRootServesLandingPage(t *testing.T) {
	e := newEnv(t)

	w, _ := e.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "AusIMM Conference Registration")
}

func TestEndToEndRegisterCertificateDownloads(t *testing.T) {
	e := newEnv(t)

	regID := e.register(t, fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano()))

	_, resp := e.do(t, http.MethodPost, "/v1/certificates/"+regID, nil)
	var cert dto.CertificateResponse
	require.NoError(t, json.Unmarshal(resp.Data, &cert))

	for i := 0; i < 2; i++ {
		w, _ := e.do(t, http.MethodGet, "/v1/certificates/download/"+cert.CertificateCode, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 2, e.repo.certs[cert.CertificateCode].DownloadCount)
}
