package handlers

import (
	"github.com/officehub/backend/internal/domain/errors"
	"github.com/officehub/backend/internal/platform/upstream"
)

// Dashboard pages, keyed by the path segment the dashboard uses.
// Attendance and projects are owner-scoped for employees; supplier and
// applicant pages are admin territory. Assets are retired by status flip
// rather than removed. Applicants is the one collection the office API
// paginates itself.
var resources = map[string]upstream.Resource{
	"employees": {
		Name:         "employees",
		Path:         "/api/employees",
		SearchFields: []string{"name", "email", "designation"},
		AdminOnly:    true,
	},
	"customers": {
		Name:         "customers",
		Path:         "/api/customers",
		SearchFields: []string{"name", "email", "company"},
	},
	"suppliers": {
		Name:         "suppliers",
		Path:         "/api/suppliers",
		SearchFields: []string{"name", "email", "company"},
		AdminOnly:    true,
	},
	"projects": {
		Name:         "projects",
		Path:         "/api/projects",
		SearchFields: []string{"name", "customerName", "status"},
		OwnerField:   "employeeId",
	},
	"assets": {
		Name:         "assets",
		Path:         "/api/assets",
		SearchFields: []string{"name", "category", "assignedTo"},
		AdminOnly:    true,
		SoftDelete:   true,
	},
	"attendance": {
		Name:         "attendance",
		Path:         "/api/attendance",
		SearchFields: []string{"employeeName", "date", "status"},
		OwnerField:   "employeeId",
	},
	"applicants": {
		Name:         "applicants",
		Path:         "/api/applicants",
		SearchFields: []string{"name", "position"},
		AdminOnly:    true,
		ServerPaged:  true,
	},
	"quotations": {
		Name:         "quotations",
		Path:         "/api/quotations",
		SearchFields: []string{"customerName", "date"},
	},
}

func resourceByName(name string) (upstream.Resource, error) {
	res, ok := resources[name]
	if !ok {
		return upstream.Resource{}, errors.NewNotFoundError("unknown page: " + name)
	}
	return res, nil
}
