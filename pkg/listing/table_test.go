package listing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

func loadedTable(t *testing.T, n int) *Table[university] {
	t.Helper()
	table := NewTable(New(universitySpec(20)))
	require.True(t, table.Load(table.BeginLoad(), sampleUniversities(n)))
	return table
}

func TestTableApplyChangedSearchWinsOverRequestedPage(t *testing.T) {
	table := loadedTable(t, 45)

	page := table.Apply(Query{Page: 3})
	require.Equal(t, 3, page.Page)

	page = table.Apply(Query{Search: strPtr("university"), Page: 3})
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, "university", table.State().Search)

	page = table.Apply(Query{Search: strPtr("university"), Page: 2})
	assert.Equal(t, 2, page.Page)
}

func TestTableApplyChangedCategoryResetsPage(t *testing.T) {
	table := loadedTable(t, 90)
	table.Apply(Query{Page: 2})

	page := table.Apply(Query{Category: strPtr("inactive"), Page: 2})

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 30, page.Total)
}

func TestTableApplySameCategoryKeepsPage(t *testing.T) {
	table := loadedTable(t, 90)
	table.Apply(Query{Category: strPtr("active")})

	page := table.Apply(Query{Category: strPtr("ACTIVE"), Page: 2})

	assert.Equal(t, 2, page.Page)
}

func TestTableClampsStoredPage(t *testing.T) {
	table := loadedTable(t, 45)

	page := table.Dispatch(GoToPage(50))
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, table.State().Page)

	page = table.Dispatch(PrevPage())
	assert.Equal(t, 2, page.Page)
}

func TestTableDiscardsStaleLoad(t *testing.T) {
	table := NewTable(New(universitySpec(20)))
	stale := table.BeginLoad()
	fresh := table.BeginLoad()

	assert.True(t, table.Load(fresh, sampleUniversities(3)))
	assert.False(t, table.Load(stale, sampleUniversities(40)))

	assert.Equal(t, 3, table.View().Total)
}

func TestTableInvalidateKeepsStateAndDropsInFlight(t *testing.T) {
	table := loadedTable(t, 45)
	table.Apply(Query{Search: strPtr("University 1")})
	inFlight := table.BeginLoad()

	table.Invalidate()

	assert.False(t, table.Loaded())
	assert.False(t, table.Load(inFlight, sampleUniversities(2)))
	assert.Equal(t, "University 1", table.State().Search)
}

func TestTableFilteredIgnoresPagination(t *testing.T) {
	table := loadedTable(t, 45)
	table.Apply(Query{Category: strPtr("active")})

	assert.Len(t, table.Filtered(), 30)
}

func TestTableConcurrentAccess(t *testing.T) {
	table := loadedTable(t, 100)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				table.Dispatch(NextPage())
				return
			}
			table.Apply(Query{Search: strPtr("uni")})
		}(i)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, table.State().Page, 1)
}
