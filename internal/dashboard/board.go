// Package dashboard holds the per-session state of the super-admin dashboard:
// the summary totals and two independently loading time series.
package dashboard

import (
	"errors"
	"sync"
	"time"

	"github.com/noah-isme/uniportal-api/internal/models"
)

// DefaultRangeDays is the range both series start with.
const DefaultRangeDays = 30

// ErrInvalidRange is returned for a day window outside AllowedRanges.
var ErrInvalidRange = errors.New("range must be one of 7, 14, 30 or 90 days")

// AllowedRanges lists the selectable day windows.
var AllowedRanges = []int{7, 14, 30, 90}

// ValidRange reports whether days is selectable.
func ValidRange(days int) bool {
	for _, r := range AllowedRanges {
		if r == days {
			return true
		}
	}
	return false
}

// Series is the render state of one chart.
type Series struct {
	Kind      models.SeriesKind    `json:"kind"`
	RangeDays int                  `json:"rangeDays"`
	Points    []models.SeriesPoint `json:"points"`
	Loading   bool                 `json:"loading"`
	Empty     bool                 `json:"empty"`
	Message   string               `json:"message,omitempty"`
	UpdatedAt *time.Time           `json:"updatedAt,omitempty"`
}

// SummaryState is the render state of the totals section.
type SummaryState struct {
	Data    *models.DashboardSummary `json:"data,omitempty"`
	Loading bool                     `json:"loading"`
	Error   string                   `json:"error,omitempty"`
}

// Snapshot is a consistent copy of the whole board.
type Snapshot struct {
	Mounted      bool         `json:"mounted"`
	Summary      SummaryState `json:"summary"`
	Transactions Series       `json:"transactionGrowth"`
	Users        Series       `json:"userGrowth"`
}

// Ticket identifies one in-flight series fetch.
type Ticket struct {
	Kind models.SeriesKind
	Days int
	gen  uint64
}

type seriesSlot struct {
	state Series
	gen   uint64
}

// Board tracks the dashboard of one session. It is safe for concurrent use.
type Board struct {
	mu         sync.Mutex
	mounted    bool
	summary    SummaryState
	summaryGen uint64
	series     map[models.SeriesKind]*seriesSlot
	now        func() time.Time
}

// NewBoard returns an unmounted board with both series at the default range.
func NewBoard() *Board {
	b := &Board{
		series: make(map[models.SeriesKind]*seriesSlot, 2),
		now:    time.Now,
	}
	for _, kind := range []models.SeriesKind{models.SeriesTransactionGrowth, models.SeriesUserGrowth} {
		b.series[kind] = &seriesSlot{state: Series{Kind: kind, RangeDays: DefaultRangeDays, Points: []models.SeriesPoint{}}}
	}
	return b
}

// Mounted reports whether the initial fetch has been started.
func (b *Board) Mounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mounted
}

// MarkMounted records that the initial fetch has started. It returns false
// when the board was already mounted.
func (b *Board) MarkMounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mounted {
		return false
	}
	b.mounted = true
	return true
}

// RangeDays returns the selected window of kind.
func (b *Board) RangeDays(kind models.SeriesKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if slot, ok := b.series[kind]; ok {
		return slot.state.RangeDays
	}
	return DefaultRangeDays
}

// Begin marks kind as loading for days and returns the ticket its result must present.
// Any earlier ticket for the same kind becomes stale.
func (b *Board) Begin(kind models.SeriesKind, days int) (Ticket, error) {
	if !kind.Valid() {
		return Ticket{}, errors.New("unknown series kind")
	}
	if !ValidRange(days) {
		return Ticket{}, ErrInvalidRange
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	slot := b.series[kind]
	slot.gen++
	slot.state.RangeDays = days
	slot.state.Loading = true
	return Ticket{Kind: kind, Days: days, gen: slot.gen}, nil
}

// Complete stores the result of a fetch. A failed fetch leaves an empty series
// with the placeholder message. It returns false for a stale ticket, which
// leaves the board untouched.
func (b *Board) Complete(t Ticket, points []models.SeriesPoint, err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	slot, ok := b.series[t.Kind]
	if !ok || slot.gen != t.gen {
		return false
	}
	now := b.now().UTC()
	slot.state.Loading = false
	slot.state.UpdatedAt = &now
	if err != nil || len(points) == 0 {
		slot.state.Points = []models.SeriesPoint{}
		slot.state.Empty = true
		slot.state.Message = t.Kind.EmptyMessage()
		return true
	}
	slot.state.Points = append([]models.SeriesPoint(nil), points...)
	slot.state.Empty = false
	slot.state.Message = ""
	return true
}

// BeginSummary marks the totals as loading and returns a generation for CompleteSummary.
func (b *Board) BeginSummary() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summaryGen++
	b.summary.Loading = true
	return b.summaryGen
}

// CompleteSummary stores the totals or the failure message for the banner.
func (b *Board) CompleteSummary(gen uint64, data *models.DashboardSummary, err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.summaryGen {
		return false
	}
	b.summary.Loading = false
	if err != nil {
		b.summary.Error = err.Error()
		return true
	}
	b.summary.Error = ""
	b.summary.Data = data
	return true
}

// Series returns a copy of one series.
func (b *Board) Series(kind models.SeriesKind) (Series, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	slot, ok := b.series[kind]
	if !ok {
		return Series{}, false
	}
	return copySeries(slot.state), true
}

// Snapshot copies the whole board.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	summary := b.summary
	if summary.Data != nil {
		d := *summary.Data
		summary.Data = &d
	}
	return Snapshot{
		Mounted:      b.mounted,
		Summary:      summary,
		Transactions: copySeries(b.series[models.SeriesTransactionGrowth].state),
		Users:        copySeries(b.series[models.SeriesUserGrowth].state),
	}
}

// Reset drops all data and invalidates every in-flight ticket.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mounted = false
	b.summary = SummaryState{}
	b.summaryGen++
	for kind, slot := range b.series {
		slot.gen++
		slot.state = Series{Kind: kind, RangeDays: DefaultRangeDays, Points: []models.SeriesPoint{}}
	}
}

func copySeries(s Series) Series {
	s.Points = append([]models.SeriesPoint{}, s.Points...)
	if s.UpdatedAt != nil {
		at := *s.UpdatedAt
		s.UpdatedAt = &at
	}
	return s
}
