// Package report builds the weekly activity report sent to the HoD.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/campuscode/leetboard/internal/model"
)

// DefaultThreshold is the solved-count below which a student is flagged
// as an inconsistent solver.
const DefaultThreshold = 5

// Entry is one student inside a report bucket.
type Entry struct {
	RollNo   string `json:"roll_no"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Easy     int    `json:"easy"`
	Medium   int    `json:"medium"`
	Hard     int    `json:"hard"`
	Total    int    `json:"total"`
}

// Group is one year/section cohort, bucketed by activity.
type Group struct {
	Year              int     `json:"year"`
	Section           string  `json:"section,omitempty"`
	YearDisplay       string  `json:"year_display"`
	TotalStudents     int     `json:"total_students"`
	Excluded          int     `json:"excluded"`
	ZeroCount         int     `json:"zero_count"`
	InconsistentCount int     `json:"inconsistent_count"`
	ActiveCount       int     `json:"active_count"`
	Zero              []Entry `json:"zero_solvers"`
	Inconsistent      []Entry `json:"inconsistent_solvers"`
	Active            []Entry `json:"active_solvers"`
}

// Report is a full weekly report across all cohorts.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	WeekStart   time.Time `json:"week_start"`
	WeekEnd     time.Time `json:"week_end"`
	Threshold   int       `json:"threshold"`
	Groups      []Group   `json:"groups"`
}

// WeekBounds returns the Monday 00:00:00 and Sunday 23:59:59 (UTC)
// enclosing the given instant.
func WeekBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -daysSinceMonday)
	end := start.AddDate(0, 0, 6).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return start, end
}

type groupKey struct {
	year    int
	section string
}

// Build buckets the latest results into zero / inconsistent / active per
// year-section cohort. Students without an account are excluded from the
// buckets but counted, so a cohort of graduates still shows up honestly.
func Build(results []model.StudentResult, threshold int, now time.Time) *Report {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	weekStart, weekEnd := WeekBounds(now)

	groups := make(map[groupKey]*Group)
	for _, r := range results {
		key := groupKey{year: r.YearNumber, section: r.Section}
		g, ok := groups[key]
		if !ok {
			g = &Group{
				Year:        r.YearNumber,
				Section:     r.Section,
				YearDisplay: model.Student{Year: r.YearNumber, Section: r.Section}.YearDisplay(),
			}
			groups[key] = g
		}

		if model.IsNoAccount(r.Username) {
			g.Excluded++
			continue
		}
		g.TotalStudents++

		entry := Entry{
			RollNo:   r.RollNo,
			Name:     r.Name,
			Username: r.Username,
			Easy:     r.Easy,
			Medium:   r.Medium,
			Hard:     r.Hard,
			Total:    r.Total,
		}
		switch {
		case r.Total == 0:
			g.Zero = append(g.Zero, entry)
		case r.Total < threshold:
			g.Inconsistent = append(g.Inconsistent, entry)
		default:
			g.Active = append(g.Active, entry)
		}
	}

	report := &Report{
		GeneratedAt: now.UTC(),
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
		Threshold:   threshold,
	}
	for _, g := range groups {
		for _, bucket := range [][]Entry{g.Zero, g.Inconsistent, g.Active} {
			sort.Slice(bucket, func(i, j int) bool { return bucket[i].RollNo < bucket[j].RollNo })
		}
		g.ZeroCount = len(g.Zero)
		g.InconsistentCount = len(g.Inconsistent)
		g.ActiveCount = len(g.Active)
		report.Groups = append(report.Groups, *g)
	}
	sort.Slice(report.Groups, func(i, j int) bool {
		if report.Groups[i].Year != report.Groups[j].Year {
			return report.Groups[i].Year < report.Groups[j].Year
		}
		return report.Groups[i].Section < report.Groups[j].Section
	})
	return report
}

// Subject is the email subject line for this report.
func (r *Report) Subject() string {
	return fmt.Sprintf("Weekly LeetCode Report | %s - %s",
		r.WeekStart.Format("Jan 2"), r.WeekEnd.Format("Jan 2, 2006"))
}

// Render produces the plain-text report body. Active solvers are counted
// but not listed; the report exists to surface who needs a nudge.
func (r *Report) Render() string {
	var b strings.Builder

	b.WriteString("# Weekly LeetCode Report\n")
	fmt.Fprintf(&b, "Week of %s - %s\n\n",
		r.WeekStart.Format("January 2, 2006"), r.WeekEnd.Format("January 2, 2006"))

	for _, g := range r.Groups {
		fmt.Fprintf(&b, "## %s\n", g.YearDisplay)
		fmt.Fprintf(&b, "- Students: %d\n", g.TotalStudents)
		if g.Excluded > 0 {
			fmt.Fprintf(&b, "- Excluded (no account): %d\n", g.Excluded)
		}
		fmt.Fprintf(&b, "- Zero solvers: %d\n", g.ZeroCount)
		fmt.Fprintf(&b, "- Inconsistent (< %d solved): %d\n", r.Threshold, g.InconsistentCount)
		fmt.Fprintf(&b, "- Active: %d\n\n", g.ActiveCount)

		if len(g.Zero) > 0 {
			b.WriteString("### Zero Solvers\n")
			for _, e := range g.Zero {
				fmt.Fprintf(&b, "- %s %s (%s)\n", e.RollNo, e.Name, e.Username)
			}
			b.WriteString("\n")
		}
		if len(g.Inconsistent) > 0 {
			b.WriteString("### Inconsistent Solvers\n")
			for _, e := range g.Inconsistent {
				fmt.Fprintf(&b, "- %s %s (%s): %d solved (%d easy, %d medium, %d hard)\n",
					e.RollNo, e.Name, e.Username, e.Total, e.Easy, e.Medium, e.Hard)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "Generated on %s\n", r.GeneratedAt.Format("January 2, 2006 at 15:04 MST"))
	return b.String()
}
