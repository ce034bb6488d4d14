// Package scoring evaluates completed sessions against the PER pass rule:
// an overall percentage floor combined with per-topic error ceilings on the
// critical thematic units.
package scoring

import (
	"fmt"

	"github.com/perpractico/per-engine/internal/exam"
)

// PassPercent is the overall floor: at least 65% of scorable questions
// answered correctly.
const PassPercent = 65.0

// TopicScore is the per-thematic-unit tally.
type TopicScore struct {
	TopicID   int    `json:"topic_id"`
	Name      string `json:"name"`
	Correct   int    `json:"correct"`
	Errors    int    `json:"errors"`
	Total     int    `json:"total"`    // scorable questions (annulled excluded)
	Annulled  int    `json:"annulled"` // excluded from Total and Errors
	MaxErrors int    `json:"max_errors"`
	Critical  bool   `json:"critical"`
}

// Result is immutable once computed.
type Result struct {
	Correct        int          `json:"correct"`
	Errors         int          `json:"errors"`
	Unanswered     int          `json:"unanswered"`
	Total          int          `json:"total"` // scorable questions
	Percent        float64      `json:"percent"`
	Passed         bool         `json:"passed"`
	FailureReasons []string     `json:"failure_reasons,omitempty"`
	Topics         []TopicScore `json:"topics"`
}

// Score tallies answers against an exam. Unanswered questions count as
// incorrect. Annulled questions are excluded from the denominator and from
// their topic's error tally regardless of the submitted answer. Every rule
// that fails is recorded, not only the first.
func Score(e *exam.Exam, answers map[string]string, topics []exam.TopicConfig) Result {
	byTopic := make(map[int]*TopicScore, len(topics))
	order := make([]int, 0, len(topics))
	for _, t := range topics {
		byTopic[t.ID] = &TopicScore{
			TopicID: t.ID, Name: t.Name,
			MaxErrors: t.MaxErrors, Critical: t.Critical,
		}
		order = append(order, t.ID)
	}

	var res Result
	for i := range e.Questions {
		q := &e.Questions[i]
		ts := byTopic[q.TopicID]
		if ts == nil {
			// question outside the configured topic table; treat as its own
			// non-critical bucket so nothing is silently dropped
			ts = &TopicScore{TopicID: q.TopicID, MaxErrors: -1}
			byTopic[q.TopicID] = ts
			order = append(order, q.TopicID)
		}
		if q.Annulled {
			ts.Annulled++
			continue
		}
		ts.Total++
		res.Total++

		letter, answered := answers[q.ID]
		switch {
		case answered && letter == q.Correct:
			ts.Correct++
			res.Correct++
		case answered:
			ts.Errors++
			res.Errors++
		default:
			ts.Errors++
			res.Errors++
			res.Unanswered++
		}
	}

	if res.Total > 0 {
		res.Percent = float64(res.Correct) / float64(res.Total) * 100
	}

	res.Passed = true
	if res.Percent < PassPercent {
		res.Passed = false
		res.FailureReasons = append(res.FailureReasons,
			fmt.Sprintf("overall score %.1f%% below %.0f%%", res.Percent, PassPercent))
	}
	for _, id := range order {
		ts := byTopic[id]
		if ts.Critical && ts.MaxErrors >= 0 && ts.Errors > ts.MaxErrors {
			res.Passed = false
			res.FailureReasons = append(res.FailureReasons,
				fmt.Sprintf("topic %d (%s): %d errors exceed ceiling of %d", ts.TopicID, ts.Name, ts.Errors, ts.MaxErrors))
		}
		res.Topics = append(res.Topics, *ts)
	}
	return res
}
