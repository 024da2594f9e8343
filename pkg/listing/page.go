package listing

import "fmt"

// Page is one slice of a filtered collection plus the counts a footer needs.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
	From       int `json:"from"`
	To         int `json:"to"`
}

// TotalPages returns ceil(total/size). A non-positive size means one page.
func TotalPages(total, size int) int {
	if total <= 0 {
		return 0
	}
	if size <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ClampPage keeps page inside [1, max(totalPages, 1)].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

func slice[T any](filtered []T, page, size int) Page[T] {
	total := len(filtered)
	pages := TotalPages(total, size)
	page = ClampPage(page, pages)

	start, end := 0, total
	if size > 0 {
		start = (page - 1) * size
		end = start + size
		if end > total {
			end = total
		}
	}

	items := make([]T, end-start)
	copy(items, filtered[start:end])

	p := Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
		Total:      total,
	}
	if total > 0 {
		p.From = start + 1
		p.To = end
	}
	return p
}

// Summary renders the footer line, e.g. "Showing 1-3 of 3 universities".
func (p Page[T]) Summary(noun string) string {
	return fmt.Sprintf("Showing %d-%d of %d %s", p.From, p.To, p.Total, noun)
}

// HasNext reports whether a later page exists.
func (p Page[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

// HasPrev reports whether an earlier page exists.
func (p Page[T]) HasPrev() bool {
	return p.Page > 1
}
