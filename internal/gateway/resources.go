package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

// SigninResult is the backend session of a signed-in user.
type SigninResult struct {
	Token   string
	Profile models.Profile
}

type backendProfile struct {
	ID           flexString `json:"id"`
	Name         string     `json:"name"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	UniversityID flexString `json:"university_id"`
	Department   string     `json:"department"`
}

// Signin authenticates against the app's backend namespace.
func (c *Client) Signin(ctx context.Context, app models.App, req models.SigninRequest) (*SigninResult, error) {
	var raw map[string]json.RawMessage
	if err := c.do(ctx, call{
		resource: "signin",
		method:   http.MethodPost,
		path:     app.SigninPath(),
		body:     req,
	}, &raw); err != nil {
		return nil, err
	}

	var token string
	if err := json.Unmarshal(raw["token"], &token); err != nil || token == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "sign-in response missing token")
	}

	profileRaw, ok := raw[app.ProfileKey()]
	if !ok {
		profileRaw = raw["user"]
	}
	var bp backendProfile
	if len(profileRaw) > 0 {
		if err := json.Unmarshal(profileRaw, &bp); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode sign-in profile")
		}
	}
	name := bp.Name
	if name == "" {
		name = strings.TrimSpace(bp.FirstName + " " + bp.LastName)
	}
	email := bp.Email
	if email == "" {
		email = req.Email
	}

	return &SigninResult{
		Token: token,
		Profile: models.Profile{
			ID:           string(bp.ID),
			Name:         name,
			Email:        email,
			Role:         app.Role(),
			App:          app,
			UniversityID: string(bp.UniversityID),
			Department:   bp.Department,
		},
	}, nil
}

// Universities lists every tenant.
func (c *Client) Universities(ctx context.Context) ([]models.University, error) {
	var out []models.University
	if err := c.do(ctx, call{resource: "universities", method: http.MethodGet, path: "/super-admin/universities"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUniversity onboards a tenant.
func (c *Client) CreateUniversity(ctx context.Context, req models.CreateUniversityRequest) (*models.University, error) {
	var out models.University
	if err := c.do(ctx, call{
		resource: "universities.create",
		method:   http.MethodPost,
		path:     "/super-admin/universities",
		body:     req,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type summaryCount struct {
	Total int64 `json:"total"`
}

type summaryPayload struct {
	Universities summaryCount `json:"universities"`
	Transactions summaryCount `json:"transactions"`
	Users        summaryCount `json:"users"`
}

// DashboardSummary fetches the platform totals and flattens them.
func (c *Client) DashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	var out summaryPayload
	if err := c.do(ctx, call{resource: "dashboard.summary", method: http.MethodGet, path: "/super-admin/dashboard/summary"}, &out); err != nil {
		return nil, err
	}
	return &models.DashboardSummary{
		TotalUniversities: out.Universities.Total,
		TotalTransactions: out.Transactions.Total,
		TotalUsers:        out.Users.Total,
	}, nil
}

type transactionPoint struct {
	Date   models.Date `json:"date"`
	Amount float64     `json:"amount"`
	Count  int         `json:"count"`
}

type userPoint struct {
	Date          models.Date `json:"date"`
	Registrations float64     `json:"registrations"`
}

// TransactionGrowth fetches the transaction amount series for the last days.
func (c *Client) TransactionGrowth(ctx context.Context, days int) ([]models.SeriesPoint, error) {
	var out struct {
		Points []transactionPoint `json:"points"`
	}
	if err := c.do(ctx, call{
		resource: "dashboard.transaction_growth",
		method:   http.MethodGet,
		path:     "/super-admin/dashboard/transaction-growth",
		query:    daysQuery(days),
	}, &out); err != nil {
		return nil, err
	}
	points := make([]models.SeriesPoint, 0, len(out.Points))
	for _, p := range out.Points {
		points = append(points, models.SeriesPoint{Date: p.Date, Value: p.Amount, Count: p.Count})
	}
	return points, nil
}

// UserGrowth fetches the registrations series for the last days.
func (c *Client) UserGrowth(ctx context.Context, days int) ([]models.SeriesPoint, error) {
	var out struct {
		Points []userPoint `json:"points"`
	}
	if err := c.do(ctx, call{
		resource: "dashboard.user_growth",
		method:   http.MethodGet,
		path:     "/super-admin/dashboard/user-growth",
		query:    daysQuery(days),
	}, &out); err != nil {
		return nil, err
	}
	points := make([]models.SeriesPoint, 0, len(out.Points))
	for _, p := range out.Points {
		points = append(points, models.SeriesPoint{Date: p.Date, Value: p.Registrations})
	}
	return points, nil
}

// Series dispatches to the fetch of kind.
func (c *Client) Series(ctx context.Context, kind models.SeriesKind, days int) ([]models.SeriesPoint, error) {
	switch kind {
	case models.SeriesTransactionGrowth:
		return c.TransactionGrowth(ctx, days)
	case models.SeriesUserGrowth:
		return c.UserGrowth(ctx, days)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown series")
	}
}

// Payments fetches the payments table with its totals.
func (c *Client) Payments(ctx context.Context) (*models.PaymentList, error) {
	var out models.PaymentList
	if err := c.do(ctx, call{resource: "payments", method: http.MethodGet, path: "/super-admin/payments"}, &out); err != nil {
		return nil, err
	}
	if out.Payments == nil {
		out.Payments = []models.Payment{}
	}
	return &out, nil
}

// ActivityLogs fetches the platform activity log.
func (c *Client) ActivityLogs(ctx context.Context) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	if err := c.do(ctx, call{resource: "activity_logs", method: http.MethodGet, path: "/super-admin/activity-logs"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Students fetches the students visible to an admin app.
func (c *Client) Students(ctx context.Context, app models.App) ([]models.Student, error) {
	var out []models.Student
	if err := c.do(ctx, call{resource: "students", method: http.MethodGet, path: "/" + string(app) + "/students"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Courses fetches the registration catalog.
func (c *Client) Courses(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	if err := c.do(ctx, call{resource: "courses", method: http.MethodGet, path: "/students/courses"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reference fetches one reference data set.
func (c *Client) Reference(ctx context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown reference kind")
	}
	var raw []struct {
		ID   flexString `json:"id"`
		Name string     `json:"name"`
	}
	if err := c.do(ctx, call{resource: "reference." + string(kind), method: http.MethodGet, path: "/reference/" + string(kind)}, &raw); err != nil {
		return nil, err
	}
	items := make([]models.ReferenceItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, models.ReferenceItem{ID: string(r.ID), Name: r.Name})
	}
	return items, nil
}

// RegistrationSubmission is the finalized registration sent to the backend.
type RegistrationSubmission struct {
	Reference  string          `json:"reference"`
	StudentID  string          `json:"student_id"`
	Courses    []models.Course `json:"courses"`
	TotalUnits int             `json:"total_units"`
	Amount     int64           `json:"amount"`
	Currency   string          `json:"currency"`
	PaymentRef string          `json:"payment_reference,omitempty"`
}

// SubmitRegistration records a paid registration and returns the backend ID.
func (c *Client) SubmitRegistration(ctx context.Context, sub RegistrationSubmission) (string, error) {
	var out struct {
		ID flexString `json:"id"`
	}
	if err := c.do(ctx, call{
		resource: "registrations.submit",
		method:   http.MethodPost,
		path:     "/students/registrations",
		body:     sub,
	}, &out); err != nil {
		return "", err
	}
	return string(out.ID), nil
}

func daysQuery(days int) url.Values {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	return q
}

// flexString accepts identifiers encoded as JSON strings or numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
