// Package bank holds the historical question corpus and the read-only pool
// the assembler draws from.
package bank

import "strings"

// Filters narrow the candidate set before assembly or browsing.
type Filters struct {
	TipoExamen   string // titulación, e.g. "PER"
	Convocatoria string // sitting convocation, e.g. "2023-06"
	Search       string // free-text match against the prompt
}

func (f Filters) match(q *Question) bool {
	if f.TipoExamen != "" && !strings.EqualFold(q.TipoExamen, f.TipoExamen) {
		return false
	}
	if f.Convocatoria != "" && q.Convocatoria != f.Convocatoria {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(q.Prompt), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// Pool is an indexed, read-only view of the corpus. It is safe for
// concurrent use once built; corpus changes rebuild a fresh Pool.
type Pool struct {
	questions []Question
	byTopic   map[int][]*Question
	byFP      map[string][]*Question
}

// NewPool indexes the given questions by topic and fingerprint. Questions
// without a fingerprint get one computed from their content.
func NewPool(questions []Question) *Pool {
	p := &Pool{
		questions: questions,
		byTopic:   make(map[int][]*Question),
		byFP:      make(map[string][]*Question),
	}
	for i := range p.questions {
		q := &p.questions[i]
		if q.Fingerprint == "" {
			q.ComputeFingerprint()
		}
		p.byTopic[q.TopicID] = append(p.byTopic[q.TopicID], q)
		p.byFP[q.Fingerprint] = append(p.byFP[q.Fingerprint], q)
	}
	return p
}

// Size returns the number of questions in the pool.
func (p *Pool) Size() int { return len(p.questions) }

// ByTopic returns the questions of one topic that pass the filters. The
// result may contain duplicate fingerprints (the same content from several
// sittings); deduplication is the assembler's concern.
func (p *Pool) ByTopic(topicID int, f Filters) []*Question {
	var out []*Question
	for _, q := range p.byTopic[topicID] {
		if f.match(q) {
			out = append(out, q)
		}
	}
	return out
}

// UniqueByTopic returns one representative per fingerprint for a topic,
// after filtering.
func (p *Pool) UniqueByTopic(topicID int, f Filters) []*Question {
	seen := make(map[string]bool)
	var out []*Question
	for _, q := range p.byTopic[topicID] {
		if !f.match(q) || seen[q.Fingerprint] {
			continue
		}
		seen[q.Fingerprint] = true
		out = append(out, q)
	}
	return out
}

// ByFingerprint returns a representative question for the fingerprint plus
// every historical occurrence of that content, or (nil, nil) when unknown.
func (p *Pool) ByFingerprint(fp string) (*Question, []*Question) {
	occ := p.byFP[fp]
	if len(occ) == 0 {
		return nil, nil
	}
	return occ[0], occ
}

// All returns every question passing the filters, for browsing surfaces.
func (p *Pool) All(f Filters) []*Question {
	var out []*Question
	for i := range p.questions {
		q := &p.questions[i]
		if f.match(q) {
			out = append(out, q)
		}
	}
	return out
}
