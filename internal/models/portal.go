package models

import "strings"

// App identifies one of the portal front-ends. Each app signs in against its
// own backend namespace and maps to exactly one role.
type App string

const (
	AppStudents        App = "students"
	AppDepartmentAdmin App = "department-admin"
	AppUniversityAdmin App = "university-admin"
	AppSuperAdmin      App = "super-admin"
)

// UserRole represents the roles enforced by the RBAC middleware.
type UserRole string

const (
	RoleSuperAdmin      UserRole = "SUPERADMIN"
	RoleUniversityAdmin UserRole = "UNIVERSITY_ADMIN"
	RoleDepartmentAdmin UserRole = "DEPARTMENT_ADMIN"
	RoleStudent         UserRole = "STUDENT"
)

// ParseApp validates a path segment naming an app.
func ParseApp(raw string) (App, bool) {
	app := App(strings.ToLower(strings.TrimSpace(raw)))
	switch app {
	case AppStudents, AppDepartmentAdmin, AppUniversityAdmin, AppSuperAdmin:
		return app, true
	default:
		return "", false
	}
}

// Role returns the role granted to users signed in through the app.
func (a App) Role() UserRole {
	switch a {
	case AppSuperAdmin:
		return RoleSuperAdmin
	case AppUniversityAdmin:
		return RoleUniversityAdmin
	case AppDepartmentAdmin:
		return RoleDepartmentAdmin
	default:
		return RoleStudent
	}
}

// SigninPath is the backend endpoint that authenticates users of the app.
func (a App) SigninPath() string {
	return "/" + string(a) + "/signin"
}

// ProfileKey is the JSON key holding the signed-in profile in the backend's sign-in response.
func (a App) ProfileKey() string {
	switch a {
	case AppSuperAdmin:
		return "superAdmin"
	case AppStudents:
		return "student"
	default:
		return "admin"
	}
}

// Profile is the signed-in user as reported by the backend.
type Profile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Role         UserRole `json:"role"`
	App          App      `json:"app"`
	UniversityID string   `json:"university_id,omitempty"`
	Department   string   `json:"department,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalCount int    `json:"total_count"`
	TotalPages int    `json:"total_pages"`
	From       int    `json:"from"`
	To         int    `json:"to"`
	Summary    string `json:"summary"`
}
