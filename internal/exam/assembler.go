package exam

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/perpractico/per-engine/internal/bank"
)

// PoolView is the slice of the question pool the assembler needs.
type PoolView interface {
	UniqueByTopic(topicID int, f bank.Filters) []*bank.Question
}

// Assembler samples quota-satisfying exams from a pool. Safe for concurrent
// use: randomness comes from the locked top-level source.
type Assembler struct {
	pool   PoolView
	topics []TopicConfig
	now    func() time.Time
}

func NewAssembler(pool PoolView, topics []TopicConfig) *Assembler {
	return &Assembler{
		pool:   pool,
		topics: topics,
		now:    time.Now,
	}
}

// Assemble draws quota-many questions per topic uniformly at random without
// replacement, skipping any fingerprint already drawn for another topic
// (the same fact can be tested in two topics' banks). Positions are then
// shuffled so topic order is not exposed to the solver. On any shortfall the
// whole assembly fails with *InsufficientPoolError.
func (a *Assembler) Assemble(userID string, f bank.Filters) (*Exam, error) {
	used := make(map[string]bool)
	selected := make([]bank.Question, 0, TotalQuestions(a.topics))

	for _, t := range a.topics {
		candidates := a.pool.UniqueByTopic(t.ID, f)

		avail := make([]*bank.Question, 0, len(candidates))
		for _, q := range candidates {
			if !used[q.Fingerprint] {
				avail = append(avail, q)
			}
		}
		if len(avail) < t.Quota {
			return nil, &InsufficientPoolError{TopicID: t.ID, Available: len(avail), Required: t.Quota}
		}

		rand.Shuffle(len(avail), func(i, j int) { avail[i], avail[j] = avail[j], avail[i] })
		for _, q := range avail[:t.Quota] {
			used[q.Fingerprint] = true
			selected = append(selected, *q)
		}
	}

	rand.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })

	return &Exam{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: a.now().UTC(),
		Filters:   f,
		Questions: selected,
	}, nil
}
