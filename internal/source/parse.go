package source

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/campuscode/leetboard/internal/model"
)

// NotFound is a source's definitive statement that the username does
// not exist. It is an answer, not a failure: the source is healthy and
// no other source should be asked.
type NotFound struct {
	Reason string
}

// defaultReason is what sources report when they give no message.
const defaultReason = "user_not_found"

type parseFunc func(payload []byte) (model.StatRecord, *NotFound, error)

var parsers = map[string]parseFunc{
	"alfa":   parseAlfa,
	"stats":  parseStats,
	"faisal": parseFaisal,
}

// KnownParser reports whether a parser name is registered.
func KnownParser(name string) bool {
	_, ok := parsers[name]
	return ok
}

// Parse normalizes a raw HTTP 200 payload from a source into a
// StatRecord or a NotFound. It is pure: no I/O, no retained state, and
// the same payload always yields the same result. A malformed payload
// returns an error, which callers treat as a source failure.
func Parse(parser string, payload []byte) (model.StatRecord, *NotFound, error) {
	fn, ok := parsers[parser]
	if !ok {
		return model.StatRecord{}, nil, eris.Errorf("source: unknown parser %q", parser)
	}
	return fn(payload)
}

// parseAlfa handles the alfa-leetcode-api /{username}/solved shape.
// Unknown users come back as a GraphQL-style errors array.
func parseAlfa(payload []byte) (model.StatRecord, *NotFound, error) {
	var p struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		SolvedProblem int `json:"solvedProblem"`
		EasySolved    int `json:"easySolved"`
		MediumSolved  int `json:"mediumSolved"`
		HardSolved    int `json:"hardSolved"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return model.StatRecord{}, nil, eris.Wrap(err, "source: decode alfa payload")
	}
	if len(p.Errors) > 0 {
		reason := p.Errors[0].Message
		if reason == "" {
			reason = defaultReason
		}
		return model.StatRecord{}, &NotFound{Reason: reason}, nil
	}
	return model.StatRecord{
		Easy:   p.EasySolved,
		Medium: p.MediumSolved,
		Hard:   p.HardSolved,
		Total:  p.SolvedProblem,
	}, nil, nil
}

// parseStats handles the leetcode-stats-api shape, which reports
// unknown users with status "error".
func parseStats(payload []byte) (model.StatRecord, *NotFound, error) {
	var p struct {
		Status       string `json:"status"`
		Message      string `json:"message"`
		TotalSolved  int    `json:"totalSolved"`
		EasySolved   int    `json:"easySolved"`
		MediumSolved int    `json:"mediumSolved"`
		HardSolved   int    `json:"hardSolved"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return model.StatRecord{}, nil, eris.Wrap(err, "source: decode stats payload")
	}
	if p.Status == "error" {
		reason := p.Message
		if reason == "" {
			reason = defaultReason
		}
		return model.StatRecord{}, &NotFound{Reason: reason}, nil
	}
	return model.StatRecord{
		Easy:   p.EasySolved,
		Medium: p.MediumSolved,
		Hard:   p.HardSolved,
		Total:  p.TotalSolved,
	}, nil, nil
}

// parseFaisal handles the faisalshohag API, which signals unknown users
// either way depending on deployment: an errors array or status "error".
// totalSolved is preferred for the total; older deployments only ship
// solvedProblem.
func parseFaisal(payload []byte) (model.StatRecord, *NotFound, error) {
	var p struct {
		Errors        []json.RawMessage `json:"errors"`
		Status        string            `json:"status"`
		TotalSolved   *int              `json:"totalSolved"`
		SolvedProblem int               `json:"solvedProblem"`
		EasySolved    int               `json:"easySolved"`
		MediumSolved  int               `json:"mediumSolved"`
		HardSolved    int               `json:"hardSolved"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return model.StatRecord{}, nil, eris.Wrap(err, "source: decode faisal payload")
	}
	if len(p.Errors) > 0 || p.Status == "error" {
		return model.StatRecord{}, &NotFound{Reason: defaultReason}, nil
	}
	total := p.SolvedProblem
	if p.TotalSolved != nil {
		total = *p.TotalSolved
	}
	return model.StatRecord{
		Easy:   p.EasySolved,
		Medium: p.MediumSolved,
		Hard:   p.HardSolved,
		Total:  total,
	}, nil, nil
}
