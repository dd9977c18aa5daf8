package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscode/leetboard/internal/model"
)

func resultRow(rollNo, name, username string, year int, section string, total int) model.StudentResult {
	row := model.Student{RollNo: rollNo, Name: name, Username: username, Year: year, Section: section}.Result()
	row.Total = total
	row.Outcome = model.OutcomeFresh
	return row
}

func TestWeekBounds(t *testing.T) {
	// Wednesday, August 20, 2025.
	wednesday := time.Date(2025, 8, 20, 14, 30, 0, 0, time.UTC)
	start, end := WeekBounds(wednesday)

	assert.Equal(t, time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, time.Date(2025, 8, 24, 23, 59, 59, 0, time.UTC), end)
	assert.Equal(t, time.Sunday, end.Weekday())
}

func TestWeekBounds_MondayAndSunday(t *testing.T) {
	monday := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)
	start, _ := WeekBounds(monday)
	assert.Equal(t, monday, start)

	// A Sunday still belongs to the week that started the previous Monday.
	sunday := time.Date(2025, 8, 24, 23, 0, 0, 0, time.UTC)
	start, end := WeekBounds(sunday)
	assert.Equal(t, monday, start)
	assert.Equal(t, time.Date(2025, 8, 24, 23, 59, 59, 0, time.UTC), end)
}

func TestBuild_Buckets(t *testing.T) {
	now := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	results := []model.StudentResult{
		resultRow("20CS103", "Chitra Devi", "chitrad", 2, "A", 17),
		resultRow("20CS101", "Alice Kumar", "alicek", 2, "A", 0),
		resultRow("20CS102", "Bobby Rao", "bobbyr", 2, "A", 3),
		resultRow("20CS104", "Dev Menon", "Higher Studies", 2, "A", 0),
	}

	r := Build(results, 5, now)
	require.Len(t, r.Groups, 1)

	g := r.Groups[0]
	assert.Equal(t, "2nd Year (A)", g.YearDisplay)
	assert.Equal(t, 3, g.TotalStudents)
	assert.Equal(t, 1, g.Excluded)
	assert.Equal(t, 1, g.ZeroCount)
	assert.Equal(t, 1, g.InconsistentCount)
	assert.Equal(t, 1, g.ActiveCount)

	require.Len(t, g.Zero, 1)
	assert.Equal(t, "20CS101", g.Zero[0].RollNo)
	require.Len(t, g.Inconsistent, 1)
	assert.Equal(t, "20CS102", g.Inconsistent[0].RollNo)
	require.Len(t, g.Active, 1)
	assert.Equal(t, "20CS103", g.Active[0].RollNo)
}

func TestBuild_ThresholdBoundary(t *testing.T) {
	now := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	results := []model.StudentResult{
		resultRow("20CS101", "Alice Kumar", "alicek", 2, "A", 4),
		resultRow("20CS102", "Bobby Rao", "bobbyr", 2, "A", 5),
	}

	r := Build(results, 5, now)
	require.Len(t, r.Groups, 1)
	// 4 solved is inconsistent, exactly 5 is active.
	assert.Equal(t, 1, r.Groups[0].InconsistentCount)
	assert.Equal(t, 1, r.Groups[0].ActiveCount)
}

func TestBuild_GroupsOrderedByYearThenSection(t *testing.T) {
	now := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	results := []model.StudentResult{
		resultRow("21CS301", "Carl Mathew", "carlm", 3, "B", 10),
		resultRow("22CS201", "Divya Nair", "divyan", 2, "B", 10),
		resultRow("22CS101", "Esha Pillai", "eshap", 2, "A", 10),
	}

	r := Build(results, 5, now)
	require.Len(t, r.Groups, 3)
	assert.Equal(t, "2nd Year (A)", r.Groups[0].YearDisplay)
	assert.Equal(t, "2nd Year (B)", r.Groups[1].YearDisplay)
	assert.Equal(t, "3rd Year (B)", r.Groups[2].YearDisplay)
}

func TestBuild_EntriesSortedByRollNo(t *testing.T) {
	now := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	results := []model.StudentResult{
		resultRow("20CS105", "Zed Varma", "zedv", 2, "A", 0),
		resultRow("20CS101", "Alice Kumar", "alicek", 2, "A", 0),
		resultRow("20CS103", "Chitra Devi", "chitrad", 2, "A", 0),
	}

	r := Build(results, 5, now)
	require.Len(t, r.Groups, 1)
	zero := r.Groups[0].Zero
	require.Len(t, zero, 3)
	assert.Equal(t, "20CS101", zero[0].RollNo)
	assert.Equal(t, "20CS103", zero[1].RollNo)
	assert.Equal(t, "20CS105", zero[2].RollNo)
}

func TestBuild_DefaultThreshold(t *testing.T) {
	now := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	r := Build(nil, 0, now)
	assert.Equal(t, DefaultThreshold, r.Threshold)
	assert.Empty(t, r.Groups)
}

func TestRender(t *testing.T) {
	now := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	results := []model.StudentResult{
		resultRow("20CS101", "Alice Kumar", "alicek", 2, "A", 0),
		resultRow("20CS102", "Bobby Rao", "bobbyr", 2, "A", 3),
		resultRow("20CS103", "Chitra Devi", "chitrad", 2, "A", 42),
	}

	text := Build(results, 5, now).Render()

	assert.Contains(t, text, "Weekly LeetCode Report")
	assert.Contains(t, text, "Week of August 18, 2025 - August 24, 2025")
	assert.Contains(t, text, "2nd Year (A)")
	assert.Contains(t, text, "Zero solvers: 1")
	assert.Contains(t, text, "Inconsistent (< 5 solved): 1")
	assert.Contains(t, text, "Active: 1")
	assert.Contains(t, text, "20CS101 Alice Kumar (alicek)")
	assert.Contains(t, text, "20CS102 Bobby Rao (bobbyr): 3 solved")

	// Active solvers are counted but never listed.
	assert.NotContains(t, text, "Chitra Devi")
}

func TestSubject(t *testing.T) {
	now := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	r := Build(nil, 5, now)
	assert.Equal(t, "Weekly LeetCode Report | Aug 18 - Aug 24, 2025", r.Subject())
}
