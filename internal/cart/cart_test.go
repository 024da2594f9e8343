package cart

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniportal-api/internal/models"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog([]models.Course{
		{Code: "CSC101.1", Title: "Introduction to Computing", Unit: 3},
		{Code: "MTH120.1", Title: "Calculus I", Unit: 4},
		{Code: "CSC102.1", Title: "Programming Fundamentals", Unit: 3},
		{Code: "PHY101.1", Title: "General Physics", Unit: 2},
	})
	require.NoError(t, err)
	return catalog
}

func TestNewCatalogRejectsInvalidCourses(t *testing.T) {
	_, err := NewCatalog([]models.Course{{Code: "A", Title: "a", Unit: 1}, {Code: "A", Title: "b", Unit: 2}})
	assert.Error(t, err)

	_, err = NewCatalog([]models.Course{{Code: "A", Title: "a", Unit: 0}})
	assert.Error(t, err)

	_, err = NewCatalog([]models.Course{{Code: "  ", Title: "a", Unit: 1}})
	assert.Error(t, err)
}

func TestCommitMergesSelectionAndSummarises(t *testing.T) {
	s := NewSession(testCatalog(t), 0)

	require.NoError(t, s.Open())
	_, err := s.Toggle("CSC101.1")
	require.NoError(t, err)
	_, err = s.Toggle("MTH120.1")
	require.NoError(t, err)

	added, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	view := s.Snapshot()
	require.Len(t, view.Previewed, 2)
	assert.Equal(t, "CSC101.1", view.Previewed[0].Code)
	assert.Equal(t, "MTH120.1", view.Previewed[1].Code)
	assert.Equal(t, Summary{TotalUnits: 7, TotalAmount: 7000}, view.Summary)
	assert.Equal(t, PhaseIdle, view.Phase)
	assert.Empty(t, view.Selected)
}

func TestSearchKeepsHiddenSelections(t *testing.T) {
	s := NewSession(testCatalog(t), 0)
	require.NoError(t, s.Open())
	_, err := s.Toggle("MTH120.1")
	require.NoError(t, err)

	visible, err := s.Search("csc")
	require.NoError(t, err)
	require.Len(t, visible, 2)
	for _, entry := range visible {
		assert.True(t, strings.HasPrefix(entry.Code, "CSC"))
		assert.False(t, entry.Checked)
	}

	view := s.Snapshot()
	assert.Equal(t, []string{"MTH120.1"}, view.Selected)
	assert.True(t, view.CanCommit)
}

func TestToggleGuards(t *testing.T) {
	s := NewSession(testCatalog(t), 0)

	_, err := s.Toggle("CSC101.1")
	assert.ErrorIs(t, err, ErrNotBrowsing)

	require.NoError(t, s.Open())
	_, err = s.Toggle("ENG999.1")
	assert.ErrorIs(t, err, ErrUnknownCourse)

	on, err := s.Toggle("CSC101.1")
	require.NoError(t, err)
	assert.True(t, on)
	on, err = s.Toggle("CSC101.1")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestCancelDiscardsSelection(t *testing.T) {
	s := NewSession(testCatalog(t), 0)
	require.NoError(t, s.Open())
	_, _ = s.Toggle("PHY101.1")
	s.Cancel()

	view := s.Snapshot()
	assert.Empty(t, view.Previewed)
	assert.Empty(t, view.Selected)
	assert.Equal(t, PhaseIdle, view.Phase)
}

func TestCommitDisabledWhenSelectionEmpty(t *testing.T) {
	s := NewSession(testCatalog(t), 0)
	require.NoError(t, s.Open())
	assert.False(t, s.CanCommit())

	_, err := s.Commit()
	assert.ErrorIs(t, err, ErrNothingSelected)

	_, _ = s.Toggle("CSC101.1")
	assert.True(t, s.CanCommit())
}

func TestRegisterDisabledWhenPreviewEmpty(t *testing.T) {
	s := NewSession(testCatalog(t), 0)
	assert.False(t, s.CanRegister())

	_, err := s.BeginConfirmation()
	assert.ErrorIs(t, err, ErrEmptyCart)

	require.NoError(t, s.Open())
	_, _ = s.Toggle("PHY101.1")
	_, err = s.Commit()
	require.NoError(t, err)
	assert.True(t, s.CanRegister())
}

func TestRemoveAndRemoveAll(t *testing.T) {
	s := NewSession(testCatalog(t), 0)
	require.NoError(t, s.Open())
	for _, code := range []string{"CSC101.1", "MTH120.1", "PHY101.1"} {
		_, err := s.Toggle(code)
		require.NoError(t, err)
	}
	_, err := s.Commit()
	require.NoError(t, err)

	assert.True(t, s.Remove("MTH120.1"))
	assert.False(t, s.Remove("MTH120.1"))
	view := s.Snapshot()
	require.Len(t, view.Previewed, 2)
	assert.Equal(t, Summary{TotalUnits: 5, TotalAmount: 5000}, view.Summary)

	s.RemoveAll()
	assert.Empty(t, s.Snapshot().Previewed)
	assert.Equal(t, Summary{}, s.Summary())
}

func TestConfirmationFlow(t *testing.T) {
	s := NewSession(testCatalog(t), 1500)
	require.NoError(t, s.Open())
	_, _ = s.Toggle("CSC101.1")
	_, err := s.Commit()
	require.NoError(t, err)

	summary, err := s.BeginConfirmation()
	require.NoError(t, err)
	assert.Equal(t, Summary{TotalUnits: 3, TotalAmount: 4500}, summary)

	require.NoError(t, s.CancelConfirmation())
	assert.Len(t, s.Snapshot().Previewed, 1)
	assert.Equal(t, StepRegistration, s.Snapshot().Step)

	_, err = s.BeginConfirmation()
	require.NoError(t, err)
	confirmed, err := s.Confirm()
	require.NoError(t, err)
	assert.Equal(t, summary, confirmed.Summary)
	require.Len(t, confirmed.Courses, 1)

	view := s.Snapshot()
	assert.Equal(t, StepPayment, view.Step)
	assert.Empty(t, view.Previewed)
	require.NotNil(t, view.Confirmed)

	assert.ErrorIs(t, s.Open(), ErrWrongStep)

	s.Rollback()
	view = s.Snapshot()
	assert.Equal(t, StepRegistration, view.Step)
	assert.Len(t, view.Previewed, 1)
	assert.Nil(t, view.Confirmed)
}

func TestConfirmRequiresConfirmationStep(t *testing.T) {
	s := NewSession(testCatalog(t), 0)
	_, err := s.Confirm()
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestPreviewNeverHoldsDuplicateCodes(t *testing.T) {
	catalog := testCatalog(t)
	codes := []string{"CSC101.1", "MTH120.1", "CSC102.1", "PHY101.1"}
	rng := rand.New(rand.NewSource(7))
	s := NewSession(catalog, 0)

	for round := 0; round < 200; round++ {
		require.NoError(t, s.Open())
		for i := 0; i < rng.Intn(5); i++ {
			_, err := s.Toggle(codes[rng.Intn(len(codes))])
			require.NoError(t, err)
		}
		if s.CanCommit() {
			_, err := s.Commit()
			require.NoError(t, err)
		} else {
			s.Cancel()
		}
		if rng.Intn(4) == 0 {
			s.Remove(codes[rng.Intn(len(codes))])
		}

		view := s.Snapshot()
		seen := map[string]bool{}
		units := 0
		for _, c := range view.Previewed {
			require.False(t, seen[c.Code], "duplicate %s in round %d", c.Code, round)
			seen[c.Code] = true
			units += c.Unit
		}
		require.Equal(t, units, view.Summary.TotalUnits)
		require.Equal(t, int64(units)*DefaultUnitRate, view.Summary.TotalAmount)
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := NewSession(testCatalog(t), 0)
	require.NoError(t, s.Open())
	_, _ = s.Toggle("CSC101.1")
	_, _ = s.Commit()
	_, _ = s.BeginConfirmation()
	s.Reset()

	view := s.Snapshot()
	assert.Equal(t, StepRegistration, view.Step)
	assert.Equal(t, PhaseIdle, view.Phase)
	assert.Empty(t, view.Previewed)
}

func TestDefaultCatalogLoads(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	assert.Greater(t, catalog.Len(), 0)
	course, ok := catalog.Lookup("MTH120.1")
	require.True(t, ok)
	assert.Equal(t, 4, course.Unit)
}
