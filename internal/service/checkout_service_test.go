package service

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/cart"
	"github.com/noah-isme/uniportal-api/internal/gateway"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/payment"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/jobs"
	"github.com/noah-isme/uniportal-api/pkg/storage"
)

type memoryRegistrations struct {
	mu        sync.Mutex
	items     map[string]models.Registration
	err       error
	intentErr error
}

func newMemoryRegistrations() *memoryRegistrations {
	return &memoryRegistrations{items: map[string]models.Registration{}}
}

func (m *memoryRegistrations) Create(_ context.Context, reg *models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	reg.CreatedAt, reg.UpdatedAt = now, now
	m.items[reg.ID] = *reg
	return nil
}

func (m *memoryRegistrations) FindByID(_ context.Context, id string) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.items[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
	}
	return &reg, nil
}

func (m *memoryRegistrations) ListByStudent(_ context.Context, studentID string) ([]models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Registration
	for _, reg := range m.items {
		if reg.StudentID == studentID {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRegistrations) update(id string, fn func(*models.Registration)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.items[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
	}
	fn(&reg)
	m.items[id] = reg
	return nil
}

func (m *memoryRegistrations) ListByStatus(_ context.Context, status models.RegistrationStatus) ([]models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Registration
	for _, reg := range m.items {
		if reg.Status == status {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRegistrations) SetPaymentIntent(_ context.Context, id, token, url string) error {
	if m.intentErr != nil {
		return m.intentErr
	}
	return m.update(id, func(r *models.Registration) { r.PaymentToken, r.PaymentURL = token, url })
}

func (m *memoryRegistrations) UpdateStatus(_ context.Context, id string, status models.RegistrationStatus) error {
	return m.update(id, func(r *models.Registration) { r.Status = status })
}

func (m *memoryRegistrations) MarkSubmitted(_ context.Context, id, upstreamID, slipPath string) error {
	return m.update(id, func(r *models.Registration) {
		r.Status = models.RegistrationSubmitted
		r.UpstreamID = &upstreamID
		r.SlipPath = &slipPath
	})
}

type fakeProvider struct {
	payment.Provider
	err    error
	intent payment.Intent
}

func (f *fakeProvider) CreateIntent(_ context.Context, in payment.Intent) (*payment.Checkout, error) {
	f.intent = in
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Checkout{Token: "tok-" + in.OrderID, RedirectURL: "https://pay.test/" + in.OrderID}, nil
}

type recordingQueue struct {
	jobs []jobs.Job
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type fakeRegistrationGateway struct {
	sub   gateway.RegistrationSubmission
	token string
	err   error
}

func (f *fakeRegistrationGateway) SubmitRegistration(ctx context.Context, sub gateway.RegistrationSubmission) (string, error) {
	f.sub = sub
	f.token = gateway.TokenFromContext(ctx)
	if f.err != nil {
		return "", f.err
	}
	return "BK-1", nil
}

type checkoutFixture struct {
	svc      *CheckoutService
	repo     *memoryRegistrations
	provider *fakeProvider
	queue    *recordingQueue
	gw       *fakeRegistrationGateway
	ws       *Workspace
	slipDir  string
}

const testServerKey = "server-key"

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	dir := t.TempDir()
	slips, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	f := &checkoutFixture{
		slipDir:  dir,
		repo:     newMemoryRegistrations(),
		provider: &fakeProvider{Provider: payment.NewMockProvider(testServerKey, "")},
		queue:    &recordingQueue{},
		gw:       &fakeRegistrationGateway{},
	}
	f.svc = NewCheckoutService(f.repo, f.provider, f.gw, slips, nil, storage.NewSigner("slip-secret", time.Hour), nil, zap.NewNop(), CheckoutConfig{ServiceToken: "svc-token"})
	f.svc.AttachQueue(f.queue)

	ws, err := newTestWorkspaces().Create(context.Background())
	require.NoError(t, err)
	require.NoError(t, ws.Context().SignIn(context.Background(), "backend-token", models.Profile{ID: "stu-1", Name: "Ada Eze", Email: "ada@uni.test", App: models.AppStudents}))
	f.ws = ws
	return f
}

func (f *checkoutFixture) confirmCart(t *testing.T) *cart.Session {
	t.Helper()
	svc := NewCartService(&fakeCatalogGateway{courses: testCourses()}, nil, CartConfig{}, zap.NewNop())
	ctx := context.Background()
	_, err := svc.OpenPicker(ctx, f.ws)
	require.NoError(t, err)
	for _, code := range []string{"CSC101.1", "MTH120.1"} {
		_, err = svc.Toggle(ctx, f.ws, code)
		require.NoError(t, err)
	}
	_, err = svc.Commit(ctx, f.ws)
	require.NoError(t, err)
	_, err = svc.BeginConfirmation(ctx, f.ws)
	require.NoError(t, err)
	return f.ws.Cart()
}

func notification(orderID, status, gross string) models.PaymentNotification {
	n := models.PaymentNotification{OrderID: orderID, TransactionStatus: status, StatusCode: "200", GrossAmount: gross}
	n.SignatureKey = payment.Signature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
	return n
}

func TestCheckoutCreatesRegistrationFromSummary(t *testing.T) {
	f := newCheckoutFixture(t)
	c := f.confirmCart(t)

	res, err := f.svc.Checkout(context.Background(), f.ws)
	require.NoError(t, err)

	assert.Equal(t, int64(7000), res.Registration.Amount)
	assert.Equal(t, 7, res.Registration.TotalUnits)
	assert.Equal(t, models.RegistrationPending, res.Registration.Status)
	assert.Equal(t, "tok-"+res.Registration.ID, res.Payment.Token)
	assert.Equal(t, int64(7000), f.provider.intent.Amount)
	require.Len(t, f.provider.intent.Items, 2)
	assert.Equal(t, int64(3000), f.provider.intent.Items[0].Price)

	view := c.Snapshot()
	assert.Equal(t, cart.StepPayment, view.Step)
	assert.Empty(t, view.Previewed)

	stored, err := f.repo.FindByID(context.Background(), res.Registration.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Payment.RedirectURL, stored.PaymentURL)
}

func TestCheckoutRollsBackWhenProviderFails(t *testing.T) {
	f := newCheckoutFixture(t)
	c := f.confirmCart(t)
	f.provider.err = errors.New("provider down")

	_, err := f.svc.Checkout(context.Background(), f.ws)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)

	view := c.Snapshot()
	assert.Equal(t, cart.StepRegistration, view.Step)
	assert.Len(t, view.Previewed, 2)

	regs, err := f.repo.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, models.RegistrationFailed, regs[0].Status)
}

func TestCheckoutRollsBackWhenIntentCannotBeRecorded(t *testing.T) {
	f := newCheckoutFixture(t)
	c := f.confirmCart(t)
	f.repo.intentErr = errors.New("db down")

	_, err := f.svc.Checkout(context.Background(), f.ws)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	view := c.Snapshot()
	assert.Equal(t, cart.StepRegistration, view.Step)
	assert.Len(t, view.Previewed, 2)
	_, confirmed := c.Confirmed()
	assert.False(t, confirmed)

	regs, err := f.repo.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, models.RegistrationFailed, regs[0].Status)
}

func TestNewRegistrationAfterCheckout(t *testing.T) {
	f := newCheckoutFixture(t)
	f.confirmCart(t)
	_, err := f.svc.Checkout(context.Background(), f.ws)
	require.NoError(t, err)

	carts := NewCartService(&fakeCatalogGateway{courses: testCourses()}, nil, CartConfig{}, zap.NewNop())
	_, err = carts.OpenPicker(context.Background(), f.ws)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	view, err := carts.Reset(context.Background(), f.ws)
	require.NoError(t, err)
	assert.Equal(t, cart.StepRegistration, view.Step)

	view, err = carts.OpenPicker(context.Background(), f.ws)
	require.NoError(t, err)
	assert.Equal(t, cart.PhaseBrowsing, view.Phase)
}

func TestCheckoutRequiresConfirmationStep(t *testing.T) {
	f := newCheckoutFixture(t)
	_, err := f.svc.Checkout(context.Background(), f.ws)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNotificationSettlementSubmitsRegistration(t *testing.T) {
	f := newCheckoutFixture(t)
	f.confirmCart(t)
	res, err := f.svc.Checkout(context.Background(), f.ws)
	require.NoError(t, err)
	id := res.Registration.ID

	reg, err := f.svc.HandleNotification(context.Background(), notification(id, "settlement", "7000.00"))
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPaid, reg.Status)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, JobSubmitRegistration, f.queue.jobs[0].Type)

	require.NoError(t, f.svc.HandleJob(context.Background(), f.queue.jobs[0]))
	assert.Equal(t, "svc-token", f.gw.token)
	assert.Equal(t, id, f.gw.sub.Reference)
	assert.Equal(t, int64(7000), f.gw.sub.Amount)

	view, err := f.svc.Get(context.Background(), f.ws, id)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationSubmitted, view.Status)
	require.NotEmpty(t, view.SlipURL)

	token := view.SlipURL[len("/api/v1/downloads/"):]
	slip, err := f.svc.OpenSlip(token)
	require.NoError(t, err)
	defer slip.File.Close() //nolint:errcheck
	body, err := io.ReadAll(slip.File)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body[:4]))
	assert.Equal(t, "registration-"+id+".pdf", slip.Filename)
}

func TestNotificationIsIdempotent(t *testing.T) {
	f := newCheckoutFixture(t)
	f.confirmCart(t)
	res, err := f.svc.Checkout(context.Background(), f.ws)
	require.NoError(t, err)
	id := res.Registration.ID

	_, err = f.svc.HandleNotification(context.Background(), notification(id, "expire", "7000.00"))
	require.NoError(t, err)
	reg, err := f.svc.HandleNotification(context.Background(), notification(id, "settlement", "7000.00"))
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationFailed, reg.Status)
	assert.Empty(t, f.queue.jobs)
}

func TestNotificationNeverDowngradesPaid(t *testing.T) {
	f := newCheckoutFixture(t)
	f.confirmCart(t)
	res, err := f.svc.Checkout(context.Background(), f.ws)
	require.NoError(t, err)
	id := res.Registration.ID

	_, err = f.svc.HandleNotification(context.Background(), notification(id, "settlement", "7000.00"))
	require.NoError(t, err)
	reg, err := f.svc.HandleNotification(context.Background(), notification(id, "pending", "7000.00"))
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPaid, reg.Status)
}

func TestNotificationRejections(t *testing.T) {
	f := newCheckoutFixture(t)
	f.confirmCart(t)
	res, err := f.svc.Checkout(context.Background(), f.ws)
	require.NoError(t, err)
	id := res.Registration.ID

	bad := notification(id, "settlement", "7000.00")
	bad.SignatureKey = "deadbeef"
	_, err = f.svc.HandleNotification(context.Background(), bad)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = f.svc.HandleNotification(context.Background(), notification(id, "settlement", "1.00"))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.HandleNotification(context.Background(), notification("unknown", "settlement", "7000.00"))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = f.svc.HandleNotification(context.Background(), models.PaymentNotification{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmissionFailureIsRetried(t *testing.T) {
	f := newCheckoutFixture(t)
	f.confirmCart(t)
	res, err := f.svc.Checkout(context.Background(), f.ws)
	require.NoError(t, err)
	_, err = f.svc.HandleNotification(context.Background(), notification(res.Registration.ID, "settlement", "7000.00"))
	require.NoError(t, err)

	f.gw.err = appErrors.Clone(appErrors.ErrUpstream, "")
	err = f.svc.HandleJob(context.Background(), f.queue.jobs[0])
	require.Error(t, err)
	assert.False(t, jobs.IsPermanent(err))
	var stored []string
	require.NoError(t, filepath.WalkDir(f.slipDir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			stored = append(stored, path)
		}
		return err
	}))
	assert.Empty(t, stored)

	reg, err := f.repo.FindByID(context.Background(), res.Registration.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPaid, reg.Status)
}

func TestGetHidesOtherStudentsRegistrations(t *testing.T) {
	f := newCheckoutFixture(t)
	require.NoError(t, f.repo.Create(context.Background(), &models.Registration{ID: "other", StudentID: "stu-2", Status: models.RegistrationPending}))

	_, err := f.svc.Get(context.Background(), f.ws, "other")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestOpenSlipRejectsBadTokens(t *testing.T) {
	f := newCheckoutFixture(t)
	_, err := f.svc.OpenSlip("nope")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestHandleJobRejectsUnknownType(t *testing.T) {
	f := newCheckoutFixture(t)
	err := f.svc.HandleJob(context.Background(), jobs.Job{ID: "1", Type: "other"})
	require.Error(t, err)
	assert.True(t, jobs.IsPermanent(err))
}

func TestSubmitMissingRegistrationIsPermanent(t *testing.T) {
	f := newCheckoutFixture(t)
	err := f.svc.HandleJob(context.Background(), jobs.Job{ID: "gone", Type: JobSubmitRegistration, Payload: "gone"})
	require.Error(t, err)
	assert.True(t, jobs.IsPermanent(err))
}

type duplicateQueue struct{ calls int }

func (q *duplicateQueue) Enqueue(jobs.Job) error {
	q.calls++
	return jobs.ErrDuplicate
}

func TestRepeatedSettlementIsNotAnError(t *testing.T) {
	f := newCheckoutFixture(t)
	dup := &duplicateQueue{}
	f.svc.AttachQueue(dup)
	f.confirmCart(t)
	res, err := f.svc.Checkout(context.Background(), f.ws)
	require.NoError(t, err)

	reg, err := f.svc.HandleNotification(context.Background(), notification(res.Registration.ID, "settlement", "7000.00"))
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPaid, reg.Status)
	assert.Equal(t, 1, dup.calls)
}

func TestResumeSubmissionsQueuesPaidRegistrations(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	for id, status := range map[string]models.RegistrationStatus{
		"paid-1":    models.RegistrationPaid,
		"paid-2":    models.RegistrationPaid,
		"pending-1": models.RegistrationPending,
		"done-1":    models.RegistrationSubmitted,
	} {
		require.NoError(t, f.repo.Create(ctx, &models.Registration{ID: id, StudentID: "stu-1", Status: status}))
	}

	queued, err := f.svc.ResumeSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)
	require.Len(t, f.queue.jobs, 2)
	assert.Equal(t, "paid-1", f.queue.jobs[0].ID)
	assert.Equal(t, "paid-2", f.queue.jobs[1].Payload)
	assert.Equal(t, JobSubmitRegistration, f.queue.jobs[1].Type)

	dup := &duplicateQueue{}
	f.svc.AttachQueue(dup)
	queued, err = f.svc.ResumeSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)
	assert.Equal(t, 2, dup.calls)
}

func TestResumeSubmissionsReportsStoreFailure(t *testing.T) {
	f := newCheckoutFixture(t)
	f.repo.err = errors.New("db down")

	_, err := f.svc.ResumeSubmissions(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.queue.jobs)
}

func TestSlipLinkOmittedOnceSlipIsRemoved(t *testing.T) {
	f := newCheckoutFixture(t)
	f.confirmCart(t)
	res, err := f.svc.Checkout(context.Background(), f.ws)
	require.NoError(t, err)
	id := res.Registration.ID
	_, err = f.svc.HandleNotification(context.Background(), notification(id, "settlement", "7000.00"))
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleJob(context.Background(), f.queue.jobs[0]))

	view, err := f.svc.Get(context.Background(), f.ws, id)
	require.NoError(t, err)
	require.NotEmpty(t, view.SlipURL)
	require.NotNil(t, view.SlipPath)

	require.NoError(t, os.Remove(filepath.Join(f.slipDir, filepath.FromSlash(*view.SlipPath))))

	view, err = f.svc.Get(context.Background(), f.ws, id)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationSubmitted, view.Status)
	assert.Empty(t, view.SlipURL)
	assert.Nil(t, view.SlipExpiresAt)
}
