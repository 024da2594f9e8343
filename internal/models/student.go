package models

// Student is a row of the university and departmental students tables.
type Student struct {
	ID         string `json:"id"`
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Level      string `json:"level"`
	Status     string `json:"status"`
}
