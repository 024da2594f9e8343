package models

// ReferenceKind names a reference data set served by the backend.
type ReferenceKind string

const (
	ReferencePrograms    ReferenceKind = "programs"
	ReferenceLevels      ReferenceKind = "levels"
	ReferenceDepartments ReferenceKind = "departments"
)

// Valid reports whether the kind is known.
func (k ReferenceKind) Valid() bool {
	switch k {
	case ReferencePrograms, ReferenceLevels, ReferenceDepartments:
		return true
	default:
		return false
	}
}

// ReferenceItem maps a backend identifier to its display name.
type ReferenceItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
