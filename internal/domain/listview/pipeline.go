package listview

import (
	"strings"
)

// PageSizes is the closed set of selectable page sizes.
var PageSizes = []int{10, 25, 50, 100}

// DefaultPageSize is applied when a session has no stored table state.
const DefaultPageSize = 10

// ValidPageSize reports whether n is one of the selectable page sizes.
func ValidPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// Page is one rendered slice of a filtered list. Start and End are the
// zero-based slice bounds backing the "Showing X to Y of Z" display,
// clamped to [0, Total].
type Page[T any] struct {
	Visible []T
	Start   int
	End     int
	Total   int
	PageNo  int
	Pages   int
}

// Filter returns the items whose display text contains term,
// case-insensitively. An empty term returns the input unchanged, in order.
func Filter[T any](items []T, term string, text func(T) string) []T {
	if strings.TrimSpace(term) == "" {
		return items
	}
	needle := strings.ToLower(term)
	out := make([]T, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(text(it)), needle) {
			out = append(out, it)
		}
	}
	return out
}

// Paginate slices items into the requested page. pageNo clamps at both
// ends: below 1 to 1, and past the last page to the last page, so a stale
// page number never yields an empty page.
func Paginate[T any](items []T, pageNo, pageSize int) Page[T] {
	if !ValidPageSize(pageSize) {
		pageSize = DefaultPageSize
	}
	total := len(items)
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	if pageNo < 1 {
		pageNo = 1
	}
	if pageNo > pages {
		pageNo = pages
	}

	start := (pageNo - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	if start > total {
		start = total
	}

	return Page[T]{
		Visible: items[start:end],
		Start:   start,
		End:     end,
		Total:   total,
		PageNo:  pageNo,
		Pages:   pages,
	}
}

// Run applies the full pipeline: filter by term, then slice into the page.
// It is re-run on every search keystroke and page-size change; all input
// lists are already in memory, so there is no debouncing.
func Run[T any](items []T, term string, pageNo, pageSize int, text func(T) string) Page[T] {
	return Paginate(Filter(items, term, text), pageNo, pageSize)
}
