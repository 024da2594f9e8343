package listing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type university struct {
	Code   string
	Name   string
	Email  string
	Status string
}

func universitySpec(size int) Spec[university] {
	return Spec[university]{
		Fields:   func(u university) []string { return []string{u.Name, u.Code, u.Email} },
		Category: func(u university) string { return u.Status },
		PageSize: size,
	}
}

func sampleUniversities(n int) []university {
	items := make([]university, 0, n)
	for i := 0; i < n; i++ {
		status := "active"
		if i%3 == 0 {
			status = "inactive"
		}
		items = append(items, university{
			Code:   fmt.Sprintf("UNI%03d", i),
			Name:   fmt.Sprintf("University %d", i),
			Email:  fmt.Sprintf("registrar%d@uni.test", i),
			Status: status,
		})
	}
	return items
}

func TestFilterIsCaseInsensitiveAcrossFields(t *testing.T) {
	engine := New(universitySpec(20))
	items := []university{
		{Code: "UPH", Name: "University of Port Harcourt", Email: "info@uniport.edu.ng", Status: "active"},
		{Code: "UNILAG", Name: "University of Lagos", Email: "info@unilag.edu.ng", Status: "active"},
		{Code: "PTI", Name: "Petroleum Training Institute", Email: "desk@PORTAL.pti.ng", Status: "inactive"},
	}

	filtered := engine.Filter(items, State{Search: "PoRt", Category: CategoryAll})

	require.Len(t, filtered, 2)
	assert.Equal(t, "UPH", filtered[0].Code)
	assert.Equal(t, "PTI", filtered[1].Code)
}

func TestFilterCategoryIsAndedWithSearch(t *testing.T) {
	engine := New(universitySpec(20))
	items := sampleUniversities(9)

	filtered := engine.Filter(items, State{Search: "university", Category: "inactive"})

	require.Len(t, filtered, 3)
	for _, u := range filtered {
		assert.Equal(t, "inactive", u.Status)
	}
}

func TestFilterIdempotent(t *testing.T) {
	engine := New(universitySpec(20))
	items := sampleUniversities(60)
	rng := rand.New(rand.NewSource(7))
	terms := []string{"", "1", "uni0", "REGISTRAR4", "zzz", " 2 "}
	categories := []string{"", CategoryAll, "active", "inactive", "archived"}

	for i := 0; i < 200; i++ {
		state := State{Search: terms[rng.Intn(len(terms))], Category: categories[rng.Intn(len(categories))], Page: 1}
		first := engine.Filter(items, state)
		second := engine.Filter(items, state)
		assert.Equal(t, first, second, "state %+v", state)
		assert.Equal(t, first, engine.Filter(first, state), "filtering a filtered set changes nothing")
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	engine := New(universitySpec(20))
	items := sampleUniversities(5)
	snapshot := append([]university(nil), items...)

	_ = engine.Filter(items, State{Search: "1"})

	assert.Equal(t, snapshot, items)
}

func TestPaginateFortyFiveUniversitiesSearchPort(t *testing.T) {
	engine := New(universitySpec(20))
	items := sampleUniversities(42)
	items = append(items,
		university{Code: "UPH", Name: "University of Port Harcourt", Status: "active"},
		university{Code: "PTI", Name: "Portland Tech", Status: "active"},
		university{Code: "NPA", Name: "Ports Academy", Status: "active"},
	)
	require.Len(t, items, 45)

	page := engine.Paginate(items, State{Search: "port", Category: CategoryAll, Page: 1})

	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, "Showing 1-3 of 3 universities", page.Summary("universities"))
}

func TestPaginateSlicesAndClamps(t *testing.T) {
	engine := New(universitySpec(20))
	items := sampleUniversities(45)

	second := engine.Paginate(items, State{Page: 2})
	assert.Equal(t, 3, second.TotalPages)
	assert.Equal(t, 21, second.From)
	assert.Equal(t, 40, second.To)
	assert.Equal(t, "UNI020", second.Items[0].Code)

	beyond := engine.Paginate(items, State{Page: 99})
	assert.Equal(t, 3, beyond.Page)
	assert.Len(t, beyond.Items, 5)
	assert.Equal(t, "Showing 41-45 of 45 universities", beyond.Summary("universities"))

	before := engine.Paginate(items, State{Page: -4})
	assert.Equal(t, 1, before.Page)
}

func TestPaginateEmptyResult(t *testing.T) {
	engine := New(universitySpec(20))

	page := engine.Paginate(sampleUniversities(10), State{Search: "nothing matches", Page: 3})

	assert.Equal(t, 0, page.TotalPages)
	assert.Equal(t, 1, page.Page)
	assert.Empty(t, page.Items)
	assert.Equal(t, "Showing 0-0 of 0 universities", page.Summary("universities"))
	assert.False(t, page.HasNext())
	assert.False(t, page.HasPrev())
}

func TestPaginateShowAll(t *testing.T) {
	engine := New(universitySpec(0))

	page := engine.Paginate(sampleUniversities(45), State{Page: 4})

	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Items, 45)
}

func TestCategoriesFirstSeenOrder(t *testing.T) {
	engine := New(universitySpec(20))

	assert.Equal(t, []string{"inactive", "active"}, engine.Categories(sampleUniversities(4)))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 1, TotalPages(500, 0))
}
