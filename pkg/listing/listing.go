// Package listing implements the search, category filter and pagination
// behaviour shared by every table view in the portal.
//
// A table keeps its full collection resident and derives the visible page
// from a State. Filtering and slicing are pure functions of the collection
// and the State; no I/O happens here.
package listing

import (
	"strings"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

// State is the filter state of one table view.
type State struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	Page     int    `json:"page"`
}

// NewState returns the initial state: no search, every category, first page.
func NewState() State {
	return State{Category: CategoryAll, Page: 1}
}

func (s State) categoryActive() bool {
	c := strings.TrimSpace(s.Category)
	return c != "" && !strings.EqualFold(c, CategoryAll)
}

// Spec describes how an entity type is searched, categorised and paged.
type Spec[T any] struct {
	// Fields returns the values matched by the search term.
	Fields func(T) []string
	// Category returns the value compared against State.Category. Nil disables category filtering.
	Category func(T) string
	// PageSize is the number of records per page. Zero or less shows the whole filtered set.
	PageSize int
}

// Engine applies a Spec to collections.
type Engine[T any] struct {
	spec Spec[T]
}

// New builds an Engine for the given Spec.
func New[T any](spec Spec[T]) *Engine[T] {
	return &Engine[T]{spec: spec}
}

// PageSize reports the configured page size.
func (e *Engine[T]) PageSize() int {
	return e.spec.PageSize
}

// Filter returns the records matching the search term and category of state.
// The input slice is never modified.
func (e *Engine[T]) Filter(items []T, state State) []T {
	term := strings.ToLower(strings.TrimSpace(state.Search))
	useCategory := state.categoryActive() && e.spec.Category != nil
	category := strings.TrimSpace(state.Category)

	result := make([]T, 0, len(items))
	for _, item := range items {
		if useCategory && !strings.EqualFold(strings.TrimSpace(e.spec.Category(item)), category) {
			continue
		}
		if term != "" && !e.matches(item, term) {
			continue
		}
		result = append(result, item)
	}
	return result
}

func (e *Engine[T]) matches(item T, term string) bool {
	if e.spec.Fields == nil {
		return false
	}
	for _, field := range e.spec.Fields(item) {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Paginate filters items and slices out the page requested by state.
func (e *Engine[T]) Paginate(items []T, state State) Page[T] {
	return slice(e.Filter(items, state), state.Page, e.spec.PageSize)
}

// Categories lists the distinct category values present in items, in first-seen order.
func (e *Engine[T]) Categories(items []T) []string {
	if e.spec.Category == nil {
		return nil
	}
	seen := make(map[string]struct{})
	result := make([]string, 0)
	for _, item := range items {
		value := strings.TrimSpace(e.spec.Category(item))
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, value)
	}
	return result
}
