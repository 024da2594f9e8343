package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

const registrationColumns = `id, student_id, student_email, student_name, courses, total_units, amount, currency,
        status, provider, payment_token, payment_url, upstream_id, slip_path, created_at, updated_at`

// QueryObserver receives the duration of every statement.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// RegistrationRepository persists confirmed course registrations.
type RegistrationRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// WithObserver reports statement timings to o.
func (r *RegistrationRepository) WithObserver(o QueryObserver) *RegistrationRepository {
	r.observer = o
	return r
}

func (r *RegistrationRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// Create inserts a registration, assigning ID and timestamps when missing.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	defer r.observe("registrations.create", time.Now())
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	reg.UpdatedAt = now
	if reg.Status == "" {
		reg.Status = models.RegistrationPending
	}
	const query = `INSERT INTO registrations (` + registrationColumns + `)
        VALUES (:id, :student_id, :student_email, :student_name, :courses, :total_units, :amount, :currency,
        :status, :provider, :payment_token, :payment_url, :upstream_id, :slip_path, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reg); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// FindByID fetches a registration.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	defer r.observe("registrations.find", time.Now())
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

// ListByStudent returns a student's registrations, newest first.
func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Registration, error) {
	defer r.observe("registrations.list", time.Now())
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE student_id = $1 ORDER BY created_at DESC`
	var regs []models.Registration
	if err := r.db.SelectContext(ctx, &regs, query, studentID); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// ListByStatus returns every registration in status, oldest update first.
func (r *RegistrationRepository) ListByStatus(ctx context.Context, status models.RegistrationStatus) ([]models.Registration, error) {
	defer r.observe("registrations.list_by_status", time.Now())
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE status = $1 ORDER BY updated_at ASC`
	var regs []models.Registration
	if err := r.db.SelectContext(ctx, &regs, query, status); err != nil {
		return nil, fmt.Errorf("list registrations by status: %w", err)
	}
	return regs, nil
}

// SetPaymentIntent stores the provider token and redirect URL.
func (r *RegistrationRepository) SetPaymentIntent(ctx context.Context, id, token, url string) error {
	const query = `UPDATE registrations SET payment_token = $2, payment_url = $3, updated_at = $4 WHERE id = $1`
	return r.execOne(ctx, "registrations.set_payment_intent", query, id, token, url, time.Now().UTC())
}

// UpdateStatus moves a registration to status.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	const query = `UPDATE registrations SET status = $2, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, "registrations.update_status", query, id, status, time.Now().UTC())
}

// MarkSubmitted records the backend ID and the rendered slip.
func (r *RegistrationRepository) MarkSubmitted(ctx context.Context, id, upstreamID, slipPath string) error {
	const query = `UPDATE registrations SET status = $2, upstream_id = $3, slip_path = $4, updated_at = $5 WHERE id = $1`
	return r.execOne(ctx, "registrations.mark_submitted", query, id, models.RegistrationSubmitted, upstreamID, slipPath, time.Now().UTC())
}

// Ping checks the database connection.
func (r *RegistrationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *RegistrationRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	defer r.observe(op, time.Now())
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
	}
	return nil
}
