package model

// StatRecord holds solved-problem counts for one LeetCode account.
// Total comes from the source payload and is never recomputed from the
// difficulty buckets; some sources count differently and normalization
// must stay a pure reshape of what the source said.
type StatRecord struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
	Total  int `json:"total"`
}

// IsZero reports whether every count is zero.
func (r StatRecord) IsZero() bool {
	return r == StatRecord{}
}
