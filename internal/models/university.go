package models

// University is a tenant managed from the super-admin console.
type University struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Status        string `json:"status"`
}

// CreateUniversityRequest is the super-admin onboarding form.
type CreateUniversityRequest struct {
	Code          string `json:"code" validate:"required,max=16"`
	Name          string `json:"name" validate:"required"`
	ContactPerson string `json:"contact_person" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"omitempty,min=7,max=20"`
	Address       string `json:"address"`
}
