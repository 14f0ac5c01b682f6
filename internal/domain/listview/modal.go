package listview

import (
	"encoding/json"

	"github.com/officehub/backend/internal/domain/errors"
)

// ModalMode identifies which overlay a page is showing. At most one mode is
// active at any time; the empty string means no overlay.
type ModalMode string

const (
	ModalClosed ModalMode = ""
	ModalAdd    ModalMode = "ADD"
	ModalEdit   ModalMode = "EDIT"
	ModalView   ModalMode = "VIEW"
	ModalDelete ModalMode = "DELETE"
)

func validModalMode(m ModalMode) bool {
	switch m {
	case ModalClosed, ModalAdd, ModalEdit, ModalView, ModalDelete:
		return true
	}
	return false
}

// ModalState ties the active mode to the record it operates on, so "which
// record belongs to which overlay" is a single value rather than two
// loosely-coupled slots. Record holds the selected record as returned by
// the office API; RecordID is its identifier for delete confirmations.
type ModalState struct {
	Mode     ModalMode       `json:"mode"`
	RecordID string          `json:"recordId,omitempty"`
	Record   json.RawMessage `json:"record,omitempty"`
}

// Toggle switches the overlay. Toggling the mode that is already active
// closes it (a switch, not a stack). Entering ADD clears any captured
// record; EDIT, VIEW and DELETE capture the selected record.
func (s *ModalState) Toggle(next ModalMode, recordID string, record json.RawMessage) error {
	if !validModalMode(next) {
		return errors.NewValidationError("unknown modal mode")
	}

	if next == s.Mode || next == ModalClosed {
		s.Close()
		return nil
	}

	switch next {
	case ModalAdd:
		s.RecordID = ""
		s.Record = nil
	case ModalEdit, ModalView, ModalDelete:
		if recordID == "" {
			return errors.NewValidationError("a record must be selected for this modal")
		}
		s.RecordID = recordID
		s.Record = record
	}
	s.Mode = next
	return nil
}

// Close returns to the no-overlay state and drops the captured record.
func (s *ModalState) Close() {
	s.Mode = ModalClosed
	s.RecordID = ""
	s.Record = nil
}

// IsOpen reports whether any overlay is showing.
func (s *ModalState) IsOpen() bool {
	return s.Mode != ModalClosed
}
