package listing

import (
	"strings"
	"sync"
	"time"
)

// Query carries the filter parameters of one request against a table.
// Nil fields and a zero Page leave the current state untouched.
type Query struct {
	Search   *string
	Category *string
	Page     int
}

// Table holds a resident collection together with its filter state.
// It is safe for concurrent use.
type Table[T any] struct {
	mu       sync.Mutex
	engine   *Engine[T]
	items    []T
	loaded   bool
	loadedAt time.Time
	state    State
	gen      uint64
}

// NewTable returns an empty, unloaded table.
func NewTable[T any](engine *Engine[T]) *Table[T] {
	return &Table[T]{engine: engine, state: NewState()}
}

// Loaded reports whether a collection has been stored.
func (t *Table[T]) Loaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded
}

// LoadedAt reports when the resident collection was stored.
func (t *Table[T]) LoadedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadedAt
}

// BeginLoad starts a fetch and returns its generation. Only the most recent
// generation may store its result.
func (t *Table[T]) BeginLoad() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	return t.gen
}

// Load stores items fetched under gen. It returns false, leaving the table
// unchanged, when a newer load was started in the meantime.
func (t *Table[T]) Load(gen uint64, items []T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return false
	}
	t.items = append(make([]T, 0, len(items)), items...)
	t.loaded = true
	t.loadedAt = time.Now().UTC()
	return true
}

// Invalidate marks the collection stale so the next read refetches it.
// In-flight loads are discarded. The filter state is kept.
func (t *Table[T]) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.loaded = false
}

// State returns the current filter state.
func (t *Table[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Dispatch applies one action and renders the resulting page.
func (t *Table[T]) Dispatch(action Action) Page[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Reduce(t.state, action)
	return t.renderLocked()
}

// Apply folds a request into the state. A changed search term or category
// resets the page to 1 even when the same request also asks for a page.
func (t *Table[T]) Apply(q Query) Page[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	filterChanged := false
	if q.Search != nil && *q.Search != t.state.Search {
		t.state = Reduce(t.state, SetSearch(*q.Search))
		filterChanged = true
	}
	if q.Category != nil && !sameCategory(*q.Category, t.state.Category) {
		t.state = Reduce(t.state, SetCategory(*q.Category))
		filterChanged = true
	}
	if !filterChanged && q.Page > 0 {
		t.state = Reduce(t.state, GoToPage(q.Page))
	}
	return t.renderLocked()
}

// View renders the current page without changing the filter.
func (t *Table[T]) View() Page[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.renderLocked()
}

// Filtered returns every record matching the current filter, ignoring pagination.
func (t *Table[T]) Filtered() []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.Filter(t.items, t.state)
}

// Categories lists the category values present in the resident collection.
func (t *Table[T]) Categories() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.Categories(t.items)
}

func (t *Table[T]) renderLocked() Page[T] {
	page := t.engine.Paginate(t.items, t.state)
	// keep the stored page in bounds so Next/Prev start from what was shown
	t.state.Page = page.Page
	return page
}

func sameCategory(a, b string) bool {
	norm := func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return CategoryAll
		}
		return strings.ToLower(v)
	}
	return norm(a) == norm(b)
}
