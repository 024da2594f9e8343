package cart

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noah-isme/uniportal-api/internal/models"
)

// Catalog is the read-only set of courses a student may register for.
type Catalog struct {
	courses []models.Course
	index   map[string]int
}

// NewCatalog validates the courses and fixes their order.
func NewCatalog(courses []models.Course) (*Catalog, error) {
	c := &Catalog{
		courses: make([]models.Course, 0, len(courses)),
		index:   make(map[string]int, len(courses)),
	}
	for _, course := range courses {
		code := strings.TrimSpace(course.Code)
		if code == "" {
			return nil, fmt.Errorf("catalog: course with empty code")
		}
		if course.Unit <= 0 {
			return nil, fmt.Errorf("catalog: course %s has non-positive unit %d", code, course.Unit)
		}
		if _, dup := c.index[code]; dup {
			return nil, fmt.Errorf("catalog: duplicate course code %s", code)
		}
		course.Code = code
		c.index[code] = len(c.courses)
		c.courses = append(c.courses, course)
	}
	return c, nil
}

// Len returns the number of courses.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.courses)
}

// Courses returns a copy of the catalog in its fixed order.
func (c *Catalog) Courses() []models.Course {
	if c == nil {
		return nil
	}
	return append([]models.Course(nil), c.courses...)
}

// Lookup finds a course by code.
func (c *Catalog) Lookup(code string) (models.Course, bool) {
	if c == nil {
		return models.Course{}, false
	}
	i, ok := c.index[strings.TrimSpace(code)]
	if !ok {
		return models.Course{}, false
	}
	return c.courses[i], true
}

// Search matches query case-insensitively against code and title.
// An empty query returns the whole catalog.
func (c *Catalog) Search(query string) []models.Course {
	if c == nil {
		return nil
	}
	term := strings.ToLower(strings.TrimSpace(query))
	result := make([]models.Course, 0, len(c.courses))
	for _, course := range c.courses {
		if term == "" ||
			strings.Contains(strings.ToLower(course.Code), term) ||
			strings.Contains(strings.ToLower(course.Title), term) {
			result = append(result, course)
		}
	}
	return result
}

func (c *Catalog) position(code string) int {
	if i, ok := c.index[code]; ok {
		return i
	}
	return len(c.courses)
}

//go:embed default_catalog.json
var defaultCatalog []byte

// DefaultCatalog returns the built-in catalog used when no backend catalog is configured.
func DefaultCatalog() (*Catalog, error) {
	var courses []models.Course
	if err := json.Unmarshal(defaultCatalog, &courses); err != nil {
		return nil, fmt.Errorf("decode default catalog: %w", err)
	}
	return NewCatalog(courses)
}
