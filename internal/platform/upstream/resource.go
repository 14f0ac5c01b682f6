package upstream

import (
	"strconv"
	"strings"
)

// Resource describes one upstream collection and how the dashboard lists
// it. The office API is not uniform: most collections return everything
// and the dashboard slices locally, one (applicants) paginates server-side,
// and deletion is a hard DELETE on some collections and a soft status-flip
// PATCH on others.
type Resource struct {
	// Name is the route segment the dashboard exposes, e.g. "employees".
	Name string

	// Path is the upstream collection path, e.g. "/api/employees".
	Path string

	// SearchFields are the record fields concatenated into the text the
	// list filter matches against.
	SearchFields []string

	// OwnerField is the record field holding the owning employee's ID.
	// Empty means the collection is not employee-scoped.
	OwnerField string

	// AdminOnly restricts the whole collection to admin callers.
	AdminOnly bool

	// SoftDelete selects the PATCH status-flip delete instead of DELETE.
	SoftDelete bool

	// ServerPaged marks collections the upstream slices itself.
	ServerPaged bool
}

// Record is one entity as returned by the office API. The dashboard
// treats records as opaque except for the fields a resource declares.
type Record map[string]interface{}

// ID returns the record's identifier, trying the id spellings the office
// API uses.
func (r Record) ID() string {
	for _, k := range []string{"id", "_id", "ID"} {
		if v, ok := r[k]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// Field returns the named field rendered as a string; absent or
// non-scalar fields render empty.
func (r Record) Field(name string) string {
	v, ok := r[name]
	if !ok {
		return ""
	}
	return stringify(v)
}

// SearchText concatenates the given fields for the list filter.
func (r Record) SearchText(fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if s := r.Field(f); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
