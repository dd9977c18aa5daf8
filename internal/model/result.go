package model

// Outcome describes how a student's counts were obtained.
type Outcome string

const (
	// OutcomeFresh means a source answered with current counts (or the
	// student has no account and was resolved to zeros without fetching).
	OutcomeFresh Outcome = "fresh"
	// OutcomeNotFound means a healthy source definitively said the
	// username does not exist.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeStale means every source failed and cached counts from an
	// earlier refresh were substituted.
	OutcomeStale Outcome = "stale"
	// OutcomeUnknown means every source failed and no cached counts
	// exist; the row carries zeros.
	OutcomeUnknown Outcome = "unknown"
)

// StudentResult is one merged dashboard row. Field names follow the
// JSON shape the dashboard consumes.
type StudentResult struct {
	RollNo      string  `json:"roll_no"`
	Name        string  `json:"actual_name"`
	Username    string  `json:"username"`
	Year        string  `json:"year"`
	YearDisplay string  `json:"year_display"`
	YearNumber  int     `json:"year_number"`
	Section     string  `json:"section"`
	Easy        int     `json:"easy"`
	Medium      int     `json:"medium"`
	Hard        int     `json:"hard"`
	Total       int     `json:"total"`
	FetchError  *string `json:"fetch_error"`
	Stale       bool    `json:"is_stale"`
	Outcome     Outcome `json:"outcome"`
	Source      string  `json:"source,omitempty"`
	FetchedAt   int64   `json:"fetched_at"`
}

// Stats extracts the solved counts from a result row.
func (r StudentResult) Stats() StatRecord {
	return StatRecord{Easy: r.Easy, Medium: r.Medium, Hard: r.Hard, Total: r.Total}
}

// SetStats copies solved counts onto the row.
func (r *StudentResult) SetStats(rec StatRecord) {
	r.Easy = rec.Easy
	r.Medium = rec.Medium
	r.Hard = rec.Hard
	r.Total = rec.Total
}
