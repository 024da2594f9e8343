package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/cart"
	"github.com/noah-isme/uniportal-api/internal/gateway"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/payment"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/export"
	"github.com/noah-isme/uniportal-api/pkg/jobs"
	"github.com/noah-isme/uniportal-api/pkg/storage"
)

// JobSubmitRegistration submits a paid registration to the backend and renders its slip.
const JobSubmitRegistration = "registration.submit"

type registrationStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Registration, error)
	ListByStatus(ctx context.Context, status models.RegistrationStatus) ([]models.Registration, error)
	SetPaymentIntent(ctx context.Context, id, token, url string) error
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error
	MarkSubmitted(ctx context.Context, id, upstreamID, slipPath string) error
}

type registrationGateway interface {
	SubmitRegistration(ctx context.Context, sub gateway.RegistrationSubmission) (string, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type slipRenderer interface {
	RenderSlip(slip export.Slip) ([]byte, error)
}

type slipStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Exists(name string) bool
	Delete(name string) error
}

// CheckoutConfig tunes the payment handoff.
type CheckoutConfig struct {
	Currency     string
	APIPrefix    string
	ServiceToken string
}

// CheckoutResult is returned when payment has been handed to the provider.
type CheckoutResult struct {
	Registration *models.Registration `json:"registration"`
	Payment      payment.Checkout     `json:"payment"`
}

// RegistrationView is a registration as shown on the payment step.
type RegistrationView struct {
	*models.Registration
	SlipURL       string     `json:"slip_url,omitempty"`
	SlipExpiresAt *time.Time `json:"slip_expires_at,omitempty"`
}

// Slip is an opened registration slip ready to be streamed.
type Slip struct {
	File     *os.File
	Filename string
}

// CheckoutService turns a confirmed cart into a registration, hands it to
// the payment provider and finalizes it once payment is reported.
type CheckoutService struct {
	repo      registrationStore
	provider  payment.Provider
	gateway   registrationGateway
	slips     slipStorage
	renderer  slipRenderer
	signer    *storage.Signer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       CheckoutConfig

	mu    sync.RWMutex
	queue jobEnqueuer
}

// NewCheckoutService constructs a CheckoutService. Submission jobs are only
// enqueued once AttachQueue has been called.
func NewCheckoutService(repo registrationStore, provider payment.Provider, gw registrationGateway, slips slipStorage, renderer slipRenderer, signer *storage.Signer, validate *validator.Validate, logger *zap.Logger, cfg CheckoutConfig) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if renderer == nil {
		renderer = export.NewPDFExporter()
	}
	if cfg.Currency == "" {
		cfg.Currency = "NGN"
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &CheckoutService{
		repo:      repo,
		provider:  provider,
		gateway:   gw,
		slips:     slips,
		renderer:  renderer,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// AttachQueue sets the queue that runs submission jobs.
func (s *CheckoutService) AttachQueue(q jobEnqueuer) {
	s.mu.Lock()
	s.queue = q
	s.mu.Unlock()
}

// Checkout confirms the cart of ws and starts payment for it. When the
// handoff cannot start the cart returns to the registration step intact.
func (s *CheckoutService) Checkout(ctx context.Context, ws *Workspace) (*CheckoutResult, error) {
	c := ws.Cart()
	if c == nil {
		return nil, cartError(cart.ErrEmptyCart)
	}
	profile := ws.Context().Profile()
	if profile == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "sign in to register courses")
	}
	confirmed, err := c.Confirm()
	if err != nil {
		return nil, cartError(err)
	}

	reg := &models.Registration{
		ID:           uuid.NewString(),
		StudentID:    profile.ID,
		StudentEmail: profile.Email,
		StudentName:  profile.Name,
		Courses:      models.CourseList(confirmed.Courses),
		TotalUnits:   confirmed.Summary.TotalUnits,
		Amount:       confirmed.Summary.TotalAmount,
		Currency:     s.cfg.Currency,
		Status:       models.RegistrationPending,
		Provider:     s.provider.Name(),
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		c.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record registration")
	}

	checkout, err := s.provider.CreateIntent(ctx, s.intent(reg, confirmed))
	if err != nil {
		s.abandon(ctx, c, reg.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "payment provider unavailable")
	}
	if err := s.repo.SetPaymentIntent(ctx, reg.ID, checkout.Token, checkout.RedirectURL); err != nil {
		s.abandon(ctx, c, reg.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment intent")
	}
	reg.PaymentToken = checkout.Token
	reg.PaymentURL = checkout.RedirectURL

	s.logger.Info("registration checkout started",
		zap.String("registration_id", reg.ID),
		zap.String("student_id", reg.StudentID),
		zap.Int("units", reg.TotalUnits),
		zap.Int64("amount", reg.Amount),
		zap.String("provider", s.provider.Name()),
	)
	return &CheckoutResult{Registration: reg, Payment: *checkout}, nil
}

// abandon returns the cart to the registration step and marks the
// registration failed so a late callback cannot settle it.
func (s *CheckoutService) abandon(ctx context.Context, c *cart.Session, id string, cause error) {
	c.Rollback()
	if err := s.repo.UpdateStatus(ctx, id, models.RegistrationFailed); err != nil {
		s.logger.Error("failed to mark registration failed", zap.String("registration_id", id), zap.Error(err))
	}
	s.logger.Warn("payment handoff failed", zap.String("registration_id", id), zap.String("provider", s.provider.Name()), zap.Error(cause))
}

func (s *CheckoutService) intent(reg *models.Registration, confirmed cart.Confirmed) payment.Intent {
	items := make([]payment.Item, 0, len(confirmed.Courses))
	var unitPrice int64
	if confirmed.Summary.TotalUnits > 0 {
		unitPrice = confirmed.Summary.TotalAmount / int64(confirmed.Summary.TotalUnits)
	}
	for _, course := range confirmed.Courses {
		items = append(items, payment.Item{
			ID:    course.Code,
			Name:  course.Title,
			Price: unitPrice * int64(course.Unit),
			Qty:   1,
		})
	}
	return payment.Intent{
		OrderID:       reg.ID,
		Amount:        reg.Amount,
		Currency:      reg.Currency,
		CustomerName:  reg.StudentName,
		CustomerEmail: reg.StudentEmail,
		Items:         items,
	}
}

// Get returns a registration owned by the signed-in student.
func (s *CheckoutService) Get(ctx context.Context, ws *Workspace, id string) (*RegistrationView, error) {
	profile := ws.Context().Profile()
	if profile == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.StudentID != profile.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
	}
	return s.view(reg), nil
}

// List returns the registrations of the signed-in student, newest first.
func (s *CheckoutService) List(ctx context.Context, ws *Workspace) ([]RegistrationView, error) {
	profile := ws.Context().Profile()
	if profile == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	regs, err := s.repo.ListByStudent(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	out := make([]RegistrationView, 0, len(regs))
	for i := range regs {
		out = append(out, *s.view(&regs[i]))
	}
	return out, nil
}

func (s *CheckoutService) view(reg *models.Registration) *RegistrationView {
	v := &RegistrationView{Registration: reg}
	if reg.Status != models.RegistrationSubmitted || reg.SlipPath == nil || s.signer == nil {
		return v
	}
	// retention cleanup may have removed the file
	if !s.slips.Exists(*reg.SlipPath) {
		return v
	}
	token, claims, err := s.signer.Sign(reg.ID, *reg.SlipPath)
	if err != nil {
		s.logger.Warn("failed to sign slip link", zap.String("registration_id", reg.ID), zap.Error(err))
		return v
	}
	v.SlipURL = fmt.Sprintf("%s/downloads/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
	v.SlipExpiresAt = &claims.ExpiresAt
	return v
}

// HandleNotification applies a provider callback. Repeated callbacks are
// harmless: a status never moves back to pending and terminal statuses stick.
func (s *CheckoutService) HandleNotification(ctx context.Context, n models.PaymentNotification) (*models.Registration, error) {
	if err := s.validator.Struct(n); err != nil {
		return nil, appErrors.Validation(err, "invalid notification payload")
	}
	if err := s.provider.Verify(n); err != nil {
		s.logger.Warn("payment notification rejected", zap.String("order_id", n.OrderID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid signature")
	}

	reg, err := s.repo.FindByID(ctx, n.OrderID)
	if err != nil {
		return nil, err
	}
	if n.GrossAmount != "" && !sameAmount(n.GrossAmount, reg.Amount) {
		s.logger.Warn("payment amount mismatch", zap.String("registration_id", reg.ID), zap.String("gross_amount", n.GrossAmount), zap.Int64("expected", reg.Amount))
		return nil, appErrors.Clone(appErrors.ErrValidation, "gross amount does not match registration")
	}

	next := payment.Status(n)
	if shouldTransition(reg.Status, next) {
		if err := s.repo.UpdateStatus(ctx, reg.ID, next); err != nil {
			return nil, err
		}
		s.logger.Info("registration payment status changed",
			zap.String("registration_id", reg.ID),
			zap.String("from", string(reg.Status)),
			zap.String("to", string(next)),
			zap.String("transaction_status", n.TransactionStatus),
		)
		reg.Status = next
	}

	if reg.Status == models.RegistrationPaid {
		if err := s.enqueueSubmission(reg.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule registration submission")
		}
	}
	return reg, nil
}

func shouldTransition(current, next models.RegistrationStatus) bool {
	if current == next || current.Terminal() {
		return false
	}
	if next == models.RegistrationPending {
		return false
	}
	return true
}

func sameAmount(gross string, amount int64) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(gross), 64)
	if err != nil {
		return false
	}
	return math.Abs(v-float64(amount)) < 0.005
}

func (s *CheckoutService) enqueueSubmission(id string) error {
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return errors.New("submission queue not attached")
	}
	err := q.Enqueue(jobs.Job{ID: id, Type: JobSubmitRegistration, Payload: id})
	if errors.Is(err, jobs.ErrDuplicate) {
		s.logger.Debug("submission already queued", zap.String("registration_id", id))
		return nil
	}
	return err
}

// ResumeSubmissions enqueues every paid registration that has not been
// submitted yet, such as work dropped by a restart. It returns how many were queued.
func (s *CheckoutService) ResumeSubmissions(ctx context.Context) (int, error) {
	regs, err := s.repo.ListByStatus(ctx, models.RegistrationPaid)
	if err != nil {
		return 0, fmt.Errorf("list paid registrations: %w", err)
	}
	queued := 0
	for i := range regs {
		if err := s.enqueueSubmission(regs[i].ID); err != nil {
			return queued, fmt.Errorf("resume registration %s: %w", regs[i].ID, err)
		}
		queued++
	}
	if queued > 0 {
		s.logger.Info("resumed pending submissions", zap.Int("count", queued))
	}
	return queued, nil
}

// HandleJob runs queued checkout work.
func (s *CheckoutService) HandleJob(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case JobSubmitRegistration:
		id, ok := job.Payload.(string)
		if !ok || id == "" {
			return jobs.Permanent(fmt.Errorf("job %s: registration id payload required", job.ID))
		}
		return s.submit(ctx, id)
	default:
		return jobs.Permanent(fmt.Errorf("job %s: unsupported type %q", job.ID, job.Type))
	}
}

// submit renders the slip, records the registration with the backend and
// marks it submitted. Only paid registrations are submitted.
func (s *CheckoutService) submit(ctx context.Context, id string) error {
	reg, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, appErrors.ErrNotFound) {
		return jobs.Permanent(err)
	}
	if err != nil {
		return err
	}
	if reg.Status != models.RegistrationPaid {
		s.logger.Debug("skipping submission", zap.String("registration_id", id), zap.String("status", string(reg.Status)))
		return nil
	}

	slipPath, err := s.storeSlip(reg)
	if err != nil {
		return err
	}

	ctx = gateway.ContextWithToken(ctx, s.cfg.ServiceToken)
	upstreamID, err := s.gateway.SubmitRegistration(ctx, gateway.RegistrationSubmission{
		Reference:  reg.ID,
		StudentID:  reg.StudentID,
		Courses:    []models.Course(reg.Courses),
		TotalUnits: reg.TotalUnits,
		Amount:     reg.Amount,
		Currency:   reg.Currency,
		PaymentRef: reg.PaymentToken,
	})
	if err != nil {
		// the retry renders a fresh slip
		if delErr := s.slips.Delete(slipPath); delErr != nil {
			s.logger.Warn("failed to remove unsubmitted slip", zap.String("path", slipPath), zap.Error(delErr))
		}
		return err
	}
	if err := s.repo.MarkSubmitted(ctx, reg.ID, upstreamID, slipPath); err != nil {
		return err
	}
	s.logger.Info("registration submitted", zap.String("registration_id", reg.ID), zap.String("upstream_id", upstreamID))
	return nil
}

func (s *CheckoutService) storeSlip(reg *models.Registration) (string, error) {
	lines := make([]export.SlipLine, 0, len(reg.Courses))
	for _, c := range reg.Courses {
		lines = append(lines, export.SlipLine{Code: c.Code, Title: c.Title, Unit: c.Unit})
	}
	pdf, err := s.renderer.RenderSlip(export.Slip{
		Reference:   reg.ID,
		StudentName: reg.StudentName,
		StudentID:   reg.StudentID,
		Email:       reg.StudentEmail,
		Lines:       lines,
		TotalUnits:  reg.TotalUnits,
		Amount:      reg.Amount,
		Currency:    reg.Currency,
		PaidAt:      reg.UpdatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("render slip: %w", err)
	}
	name := fmt.Sprintf("%s/%s.pdf", reg.CreatedAt.UTC().Format("2006/01"), reg.ID)
	return s.slips.Save(name, pdf)
}

// OpenSlip resolves a signed download token to the stored slip.
func (s *CheckoutService) OpenSlip(token string) (*Slip, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "")
	}
	claims, err := s.signer.Verify(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "download link expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "download not found")
	}
	f, err := s.slips.Open(claims.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "download not found")
	}
	return &Slip{File: f, Filename: "registration-" + claims.Subject + ".pdf"}, nil
}
