package bank

import "github.com/perpractico/per-engine/internal/content"

// Sitting is one historical exam convocation the questions were taken from.
type Sitting struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Date         string `json:"date,omitempty"` // ISO date, may be empty for undated papers
	Convocatoria string `json:"convocatoria"`   // e.g. "2023-06"
	TipoExamen   string `json:"tipo_examen"`    // titulación: "PER", "PNB", ...
}

// Option is one answer choice with its letter label.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Question is immutable content from a historical sitting. Corrections never
// mutate a Question in place; re-ingestion replaces the corpus and the pool
// is rebuilt.
type Question struct {
	ID        string   `json:"id"`
	SittingID string   `json:"sitting_id"`
	Number    int      `json:"number"`
	TopicID   int      `json:"topic_id"` // 1..11
	Prompt    string   `json:"prompt"`
	Options   []Option `json:"options"`
	Correct   string   `json:"correct,omitempty"` // option letter; empty when annulled
	Annulled  bool     `json:"annulled"`

	// Denormalized from the owning sitting for filtering.
	Convocatoria string `json:"convocatoria,omitempty"`
	TipoExamen   string `json:"tipo_examen,omitempty"`

	Fingerprint string `json:"fingerprint"`
}

// OptionTexts returns the option texts in label order.
func (q *Question) OptionTexts() []string {
	out := make([]string, len(q.Options))
	for i, o := range q.Options {
		out[i] = o.Text
	}
	return out
}

// HasOption reports whether letter labels one of the question's options.
func (q *Question) HasOption(letter string) bool {
	for _, o := range q.Options {
		if o.Letter == letter {
			return true
		}
	}
	return false
}

// ComputeFingerprint fills q.Fingerprint from the question content.
func (q *Question) ComputeFingerprint() {
	q.Fingerprint = content.Fingerprint(q.Prompt, q.OptionTexts())
}

// Public is a student-safe copy: no correct letter.
func (q *Question) Public() Question {
	cp := *q
	cp.Correct = ""
	return cp
}
