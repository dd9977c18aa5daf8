package model

import (
	"fmt"
	"strings"
)

// NoAccountSentinel marks roster entries that have no LeetCode account
// (graduated students, opt-outs). It is data, not an error: these rows
// are reported with zeroed counts and never hit the network.
const NoAccountSentinel = "higher studies"

// IsNoAccount reports whether a roster username means "do not fetch".
// Matching is case-insensitive on the trimmed value; an empty username
// is treated the same way.
func IsNoAccount(username string) bool {
	u := strings.ToLower(strings.TrimSpace(username))
	return u == "" || u == NoAccountSentinel
}

// Student is one roster row.
type Student struct {
	ID       int64  `json:"id,omitempty"`
	RollNo   string `json:"roll_no"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Year     int    `json:"year"`
	Section  string `json:"section,omitempty"`
}

// HasAccount reports whether the student has a fetchable LeetCode username.
func (s Student) HasAccount() bool {
	return !IsNoAccount(s.Username)
}

// YearLabel renders the study year as an ordinal, e.g. "2nd Year".
func (s Student) YearLabel() string {
	switch s.Year {
	case 1:
		return "1st Year"
	case 2:
		return "2nd Year"
	case 3:
		return "3rd Year"
	default:
		return fmt.Sprintf("%dth Year", s.Year)
	}
}

// YearDisplay is the label shown on the dashboard, e.g. "2nd Year (A)".
func (s Student) YearDisplay() string {
	if s.Section == "" {
		return s.YearLabel()
	}
	return fmt.Sprintf("%s (%s)", s.YearLabel(), s.Section)
}

// Result seeds an output row with the student's identity fields. Counts
// and outcome are filled in by the batch orchestrator.
func (s Student) Result() StudentResult {
	return StudentResult{
		RollNo:      s.RollNo,
		Name:        s.Name,
		Username:    s.Username,
		Year:        s.YearLabel(),
		YearDisplay: s.YearDisplay(),
		YearNumber:  s.Year,
		Section:     s.Section,
	}
}
