package listview

import (
	"github.com/officehub/backend/internal/domain/errors"
)

// TableState is the per-page list state a dashboard session carries:
// current page, page size and search term. Changing the search term or the
// page size always resets the page number to 1 so the view never lands on
// an out-of-range page.
type TableState struct {
	PageNo     int    `json:"pageNo"`
	PageSize   int    `json:"pageSize"`
	SearchTerm string `json:"searchTerm"`
}

// NewTableState returns the state every page starts from.
func NewTableState() TableState {
	return TableState{PageNo: 1, PageSize: DefaultPageSize}
}

// SetSearchTerm updates the search term and resets the page number.
func (s *TableState) SetSearchTerm(term string) {
	if term == s.SearchTerm {
		return
	}
	s.SearchTerm = term
	s.PageNo = 1
}

// SetPageSize updates the page size and resets the page number. Sizes
// outside the selectable set are rejected.
func (s *TableState) SetPageSize(size int) error {
	if !ValidPageSize(size) {
		return errors.NewValidationError("page size must be one of 10, 25, 50 or 100")
	}
	if size == s.PageSize {
		return nil
	}
	s.PageSize = size
	s.PageNo = 1
	return nil
}

// NextPage advances one page, clamped to the last page of totalPages.
func (s *TableState) NextPage(totalPages int) {
	if totalPages < 1 {
		totalPages = 1
	}
	if s.PageNo < totalPages {
		s.PageNo++
	}
}

// PrevPage goes back one page, clamped at page 1.
func (s *TableState) PrevPage() {
	if s.PageNo > 1 {
		s.PageNo--
	}
}

// Normalize repairs state loaded from an older session. Zero values come
// from sessions created before a field existed.
func (s *TableState) Normalize() {
	if s.PageNo < 1 {
		s.PageNo = 1
	}
	if !ValidPageSize(s.PageSize) {
		s.PageSize = DefaultPageSize
	}
}
