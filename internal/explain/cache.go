package explain

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Generator is the external "explain this content" collaborator. Calls are
// expensive and may fail transiently.
type Generator interface {
	Generate(ctx context.Context, c Content) (Explanation, error)
}

// Store persists explanations keyed by fingerprint.
type Store interface {
	Get(ctx context.Context, fingerprint string) (*Explanation, error)
	Put(ctx context.Context, e Explanation) error
	Delete(ctx context.Context, fingerprint string) error
	Count(ctx context.Context) (int, error)
}

// Cache guarantees at most one concurrent generation per fingerprint.
// A cached value is returned without touching the generator; otherwise all
// concurrent callers for the same fingerprint share a single flight.
// Unrelated fingerprints generate fully in parallel.
type Cache struct {
	store Store
	gen   Generator
	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]bool
}

func NewCache(store Store, gen Generator) *Cache {
	return &Cache{store: store, gen: gen, inflight: map[string]bool{}}
}

// GetOrGenerate returns the cached explanation, or blocks on the (single)
// generation for this fingerprint. On generator failure every waiter gets
// an ErrGeneration-wrapped error and nothing is cached.
func (c *Cache) GetOrGenerate(ctx context.Context, fingerprint string, content Content) (*Explanation, error) {
	if e, err := c.store.Get(ctx, fingerprint); err == nil {
		return e, nil
	} else if err != ErrNoExplanation {
		return nil, err
	}
	return c.generate(ctx, fingerprint, content)
}

// Peek reports the cached value, or whether a generation is currently in
// flight, without ever triggering one. Polling clients use this.
func (c *Cache) Peek(ctx context.Context, fingerprint string) (e *Explanation, pending bool, err error) {
	if e, err := c.store.Get(ctx, fingerprint); err == nil {
		return e, false, nil
	} else if err != ErrNoExplanation {
		return nil, false, err
	}
	c.mu.Lock()
	pending = c.inflight[fingerprint]
	c.mu.Unlock()
	return nil, pending, nil
}

// Regenerate discards the cached value and forces exactly one fresh
// generation under the same per-fingerprint discipline.
func (c *Cache) Regenerate(ctx context.Context, fingerprint string, content Content) (*Explanation, error) {
	if err := c.store.Delete(ctx, fingerprint); err != nil && err != ErrNoExplanation {
		return nil, err
	}
	c.group.Forget(fingerprint)
	return c.generate(ctx, fingerprint, content)
}

// Update overwrites the stored markdown (manual editing). The value must
// already exist.
func (c *Cache) Update(ctx context.Context, fingerprint, markdown string) (*Explanation, error) {
	e, err := c.store.Get(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	e.Markdown = markdown
	if err := c.store.Put(ctx, *e); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes the cached value for a fingerprint.
func (c *Cache) Delete(ctx context.Context, fingerprint string) error {
	return c.store.Delete(ctx, fingerprint)
}

func (c *Cache) generate(ctx context.Context, fingerprint string, content Content) (*Explanation, error) {
	v, err, _ := c.group.Do(fingerprint, func() (any, error) {
		c.mu.Lock()
		c.inflight[fingerprint] = true
		c.mu.Unlock()
		defer func() {
			c.mu.Lock()
			delete(c.inflight, fingerprint)
			c.mu.Unlock()
		}()

		// A racing flight may have stored a value between our miss and the
		// flight start.
		if e, err := c.store.Get(ctx, fingerprint); err == nil {
			return e, nil
		}

		if c.gen == nil {
			return nil, fmt.Errorf("%w: no generator configured", ErrGeneration)
		}

		// In-flight generation is never cancelled by the client that
		// happened to start it; other callers are waiting on the result.
		genCtx := context.WithoutCancel(ctx)
		e, err := c.gen.Generate(genCtx, content)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		e.Fingerprint = fingerprint
		if err := c.store.Put(genCtx, e); err != nil {
			return nil, err
		}
		return &e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Explanation), nil
}
