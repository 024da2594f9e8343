// Package cart models the course-registration cart of the students portal:
// a picker that stages course codes, the previewed list they are merged into,
// and the registration → confirmation → payment steps.
//
// Everything here is in-memory state. No operation performs I/O.
package cart

import (
	"errors"
	"sort"
	"sync"

	"github.com/noah-isme/uniportal-api/internal/models"
)

// DefaultUnitRate is the price of one course unit.
const DefaultUnitRate int64 = 1000

var (
	// ErrUnknownCourse is returned when a code is not in the catalog.
	ErrUnknownCourse = errors.New("course not in catalog")
	// ErrNotBrowsing is returned by picker operations while the picker is closed.
	ErrNotBrowsing = errors.New("course picker is not open")
	// ErrNothingSelected is returned by Commit with an empty selection.
	ErrNothingSelected = errors.New("no courses selected")
	// ErrEmptyCart is returned when confirmation is requested with no previewed courses.
	ErrEmptyCart = errors.New("no courses to register")
	// ErrWrongStep is returned when an operation does not apply to the current step.
	ErrWrongStep = errors.New("operation not allowed in current step")
)

// Phase is the picker phase.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseBrowsing Phase = "browsing"
)

// Step is the registration view step.
type Step string

const (
	StepRegistration Step = "registration"
	StepConfirmation Step = "confirmation"
	StepPayment      Step = "payment"
)

// Summary is derived from the previewed list on every read.
type Summary struct {
	TotalUnits  int   `json:"totalUnits"`
	TotalAmount int64 `json:"totalAmount"`
}

// Confirmed is the cart content captured when the student confirms.
type Confirmed struct {
	Courses []models.Course `json:"courses"`
	Summary Summary         `json:"summary"`
}

// View is a consistent snapshot of the whole cart.
type View struct {
	Phase       Phase           `json:"phase"`
	Step        Step            `json:"step"`
	Query       string          `json:"query"`
	Visible     []PickerEntry   `json:"visible,omitempty"`
	Selected    []string        `json:"selected"`
	Previewed   []models.Course `json:"previewed"`
	Summary     Summary         `json:"summary"`
	CanCommit   bool            `json:"canCommit"`
	CanRegister bool            `json:"canRegister"`
	Confirmed   *Confirmed      `json:"confirmed,omitempty"`
}

// PickerEntry is a catalog course as shown in the open picker.
type PickerEntry struct {
	models.Course
	Checked bool `json:"checked"`
	Added   bool `json:"added"`
}

// Session is one student's cart. It is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	catalog   *Catalog
	rate      int64
	phase     Phase
	step      Step
	query     string
	selection map[string]struct{}
	previewed []models.Course
	confirmed *Confirmed
}

// NewSession starts an idle cart over catalog. A non-positive rate uses DefaultUnitRate.
func NewSession(catalog *Catalog, rate int64) *Session {
	if rate <= 0 {
		rate = DefaultUnitRate
	}
	return &Session{
		catalog:   catalog,
		rate:      rate,
		phase:     PhaseIdle,
		step:      StepRegistration,
		selection: map[string]struct{}{},
	}
}

// Catalog returns the catalog the session was built on.
func (s *Session) Catalog() *Catalog {
	return s.catalog
}

// Open starts browsing with an empty selection.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepRegistration {
		return ErrWrongStep
	}
	s.phase = PhaseBrowsing
	s.query = ""
	s.selection = map[string]struct{}{}
	return nil
}

// Search narrows the visible catalog. The selection is not touched.
func (s *Session) Search(query string) ([]PickerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseBrowsing {
		return nil, ErrNotBrowsing
	}
	s.query = query
	return s.visibleLocked(), nil
}

// Toggle flips code in the selection and reports whether it is now selected.
func (s *Session) Toggle(code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseBrowsing {
		return false, ErrNotBrowsing
	}
	course, ok := s.catalog.Lookup(code)
	if !ok {
		return false, ErrUnknownCourse
	}
	if _, on := s.selection[course.Code]; on {
		delete(s.selection, course.Code)
		return false, nil
	}
	s.selection[course.Code] = struct{}{}
	return true, nil
}

// CanCommit reports whether Commit is enabled.
func (s *Session) CanCommit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseBrowsing && len(s.selection) > 0
}

// Commit merges the selected courses not yet previewed, in catalog order,
// then closes the picker. It returns the number of courses added.
func (s *Session) Commit() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseBrowsing {
		return 0, ErrNotBrowsing
	}
	if len(s.selection) == 0 {
		return 0, ErrNothingSelected
	}

	present := make(map[string]struct{}, len(s.previewed))
	for _, c := range s.previewed {
		present[c.Code] = struct{}{}
	}
	added := 0
	for _, code := range s.selectedLocked() {
		if _, dup := present[code]; dup {
			continue
		}
		course, ok := s.catalog.Lookup(code)
		if !ok {
			continue
		}
		s.previewed = append(s.previewed, course)
		present[code] = struct{}{}
		added++
	}
	s.closeLocked()
	return added, nil
}

// Cancel closes the picker without merging.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

// Remove drops one previewed course and reports whether it was present.
func (s *Session) Remove(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepRegistration {
		return false
	}
	for i, c := range s.previewed {
		if c.Code == code {
			s.previewed = append(s.previewed[:i], s.previewed[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAll clears the previewed list.
func (s *Session) RemoveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepRegistration {
		return
	}
	s.previewed = nil
}

// CanRegister reports whether the confirmation overlay may open.
func (s *Session) CanRegister() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step == StepRegistration && len(s.previewed) > 0
}

// Summary derives units and amount from the previewed list.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

// BeginConfirmation opens the confirmation overlay.
func (s *Session) BeginConfirmation() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepRegistration {
		return Summary{}, ErrWrongStep
	}
	if len(s.previewed) == 0 {
		return Summary{}, ErrEmptyCart
	}
	s.closeLocked()
	s.step = StepConfirmation
	return s.summaryLocked(), nil
}

// CancelConfirmation goes back to the registration form with the list intact.
func (s *Session) CancelConfirmation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepConfirmation {
		return ErrWrongStep
	}
	s.step = StepRegistration
	return nil
}

// Confirm captures the cart, empties the previewed list and moves to payment.
func (s *Session) Confirm() (Confirmed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepConfirmation {
		return Confirmed{}, ErrWrongStep
	}
	if len(s.previewed) == 0 {
		return Confirmed{}, ErrEmptyCart
	}
	snap := Confirmed{
		Courses: append([]models.Course(nil), s.previewed...),
		Summary: s.summaryLocked(),
	}
	s.previewed = nil
	s.step = StepPayment
	s.confirmed = &snap
	return snap, nil
}

// Confirmed returns the captured cart while in the payment step.
func (s *Session) Confirmed() (Confirmed, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirmed == nil {
		return Confirmed{}, false
	}
	return *s.confirmed, true
}

// Rollback restores a confirmed cart to the registration step, used when the
// payment handoff could not be started.
func (s *Session) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepPayment || s.confirmed == nil {
		return
	}
	s.previewed = append([]models.Course(nil), s.confirmed.Courses...)
	s.confirmed = nil
	s.step = StepRegistration
}

// Reset returns the cart to its initial state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	s.previewed = nil
	s.confirmed = nil
	s.step = StepRegistration
}

// Snapshot returns the full cart view.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Phase:       s.phase,
		Step:        s.step,
		Query:       s.query,
		Selected:    s.selectedLocked(),
		Previewed:   append([]models.Course{}, s.previewed...),
		Summary:     s.summaryLocked(),
		CanCommit:   s.phase == PhaseBrowsing && len(s.selection) > 0,
		CanRegister: s.step == StepRegistration && len(s.previewed) > 0,
	}
	if s.phase == PhaseBrowsing {
		v.Visible = s.visibleLocked()
	}
	if s.confirmed != nil {
		c := *s.confirmed
		v.Confirmed = &c
	}
	return v
}

func (s *Session) closeLocked() {
	s.phase = PhaseIdle
	s.query = ""
	s.selection = map[string]struct{}{}
}

func (s *Session) summaryLocked() Summary {
	units := 0
	for _, c := range s.previewed {
		units += c.Unit
	}
	return Summary{TotalUnits: units, TotalAmount: int64(units) * s.rate}
}

// selectedLocked returns the selected codes in catalog order.
func (s *Session) selectedLocked() []string {
	codes := make([]string, 0, len(s.selection))
	for code := range s.selection {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return s.catalog.position(codes[i]) < s.catalog.position(codes[j])
	})
	return codes
}

func (s *Session) visibleLocked() []PickerEntry {
	present := make(map[string]struct{}, len(s.previewed))
	for _, c := range s.previewed {
		present[c.Code] = struct{}{}
	}
	matches := s.catalog.Search(s.query)
	entries := make([]PickerEntry, 0, len(matches))
	for _, course := range matches {
		_, checked := s.selection[course.Code]
		_, added := present[course.Code]
		entries = append(entries, PickerEntry{Course: course, Checked: checked, Added: added})
	}
	return entries
}
