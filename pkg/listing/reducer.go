package listing

import "strings"

// Action is a state transition for a table view.
type Action interface {
	apply(State) State
}

type setSearch struct{ term string }

func (a setSearch) apply(s State) State {
	s.Search = a.term
	s.Page = 1
	return s
}

type setCategory struct{ category string }

func (a setCategory) apply(s State) State {
	category := strings.TrimSpace(a.category)
	if category == "" {
		category = CategoryAll
	}
	s.Category = category
	s.Page = 1
	return s
}

type goToPage struct{ page int }

func (a goToPage) apply(s State) State {
	if a.page < 1 {
		s.Page = 1
		return s
	}
	s.Page = a.page
	return s
}

type stepPage struct{ delta int }

func (a stepPage) apply(s State) State {
	return goToPage{page: s.Page + a.delta}.apply(s)
}

type reset struct{}

func (reset) apply(State) State {
	return NewState()
}

// SetSearch replaces the search term. The page always returns to 1.
func SetSearch(term string) Action { return setSearch{term: term} }

// SetCategory replaces the category filter ("" or "all" clears it). The page always returns to 1.
func SetCategory(category string) Action { return setCategory{category: category} }

// GoToPage requests a page. Upper bounds are clamped when the page is rendered.
func GoToPage(page int) Action { return goToPage{page: page} }

// NextPage requests the following page.
func NextPage() Action { return stepPage{delta: 1} }

// PrevPage requests the preceding page, never below 1.
func PrevPage() Action { return stepPage{delta: -1} }

// Reset returns to the initial state.
func Reset() Action { return reset{} }

// Reduce applies action to state.
func Reduce(state State, action Action) State {
	if state.Page < 1 {
		state.Page = 1
	}
	if state.Category == "" {
		state.Category = CategoryAll
	}
	if action == nil {
		return state
	}
	return action.apply(state)
}
