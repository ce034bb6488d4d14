// Package explain produces and caches AI-generated explanations for
// question content. Explanations are keyed by content fingerprint, never by
// question or exam id, so one generation serves every historical occurrence
// of duplicated content.
package explain

import (
	"errors"
	"time"

	"github.com/perpractico/per-engine/internal/bank"
)

// Explanation is the cached generation result for one fingerprint. It may
// be regenerated (replacing the prior value) but never exists twice for the
// same fingerprint.
type Explanation struct {
	Fingerprint string    `json:"fingerprint"`
	Markdown    string    `json:"markdown"`
	DiagramSVG  string    `json:"diagram_svg,omitempty"`
	ImagePrompt string    `json:"image_prompt,omitempty"`
	Model       string    `json:"model,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Content is the question material handed to the generator.
type Content struct {
	Prompt  string        `json:"prompt"`
	Options []bank.Option `json:"options"`
	Correct string        `json:"correct"`
}

var (
	// ErrNoExplanation: nothing cached for the fingerprint.
	ErrNoExplanation = errors.New("no explanation for fingerprint")
	// ErrGeneration: the external generator failed; the cache is left empty
	// so a later request may retry.
	ErrGeneration = errors.New("explanation generation failed")
)
