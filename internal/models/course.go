package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Course is catalog reference data. Code is the unique catalog key.
type Course struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Unit  int    `json:"unit"`
}

// CourseList stores registered courses as a JSONB column.
type CourseList []Course

// Value implements driver.Valuer.
func (l CourseList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Course(l))
}

// Scan implements sql.Scanner.
func (l *CourseList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = CourseList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan course list: unsupported type %T", src)
	}
	var courses []Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return fmt.Errorf("scan course list: %w", err)
	}
	*l = courses
	return nil
}
