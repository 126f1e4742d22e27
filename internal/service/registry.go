package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Registry owns one client per capability and caches lazy health checks.
// A capability's status is probed on first request and held until
// Invalidate; stages consult the status before attempting live calls so a
// known-dead dependency costs nothing.
type Registry struct {
	llm    Completer
	search Searcher
	image  ImageGenerator

	mu       sync.Mutex
	statuses map[string]Status
}

func NewRegistry(llm Completer, search Searcher, image ImageGenerator) *Registry {
	return &Registry{
		llm:      llm,
		search:   search,
		image:    image,
		statuses: make(map[string]Status),
	}
}

func (r *Registry) LLM() Completer        { return r.llm }
func (r *Registry) Search() Searcher      { return r.search }
func (r *Registry) Image() ImageGenerator { return r.image }

// Status returns the cached health of the named capability, probing it
// first if it has not been checked this process run. The ping runs outside
// the lock; concurrent first callers may both probe, last write wins.
func (r *Registry) Status(ctx context.Context, name string) Status {
	r.mu.Lock()
	if s, ok := r.statuses[name]; ok {
		r.mu.Unlock()
		return s
	}
	r.mu.Unlock()

	s := r.check(ctx, name)

	r.mu.Lock()
	r.statuses[name] = s
	r.mu.Unlock()
	return s
}

// Invalidate drops the cached status so the next Status call re-probes.
func (r *Registry) Invalidate(name string) {
	r.mu.Lock()
	delete(r.statuses, name)
	r.mu.Unlock()
}

func (r *Registry) check(ctx context.Context, name string) Status {
	var err error
	switch name {
	case CapabilityLLM:
		err = r.llm.Ping(ctx)
	case CapabilitySearch:
		err = r.search.Ping(ctx)
	case CapabilityImage:
		err = r.image.Ping(ctx)
	default:
		err = fmt.Errorf("unknown capability %q", name)
	}

	s := Status{Name: name, CheckedAt: time.Now(), Err: err}
	switch {
	case err == nil:
		s.State = Available
	case retryable(err):
		// Timeouts, rate limits, and server errors mean the service
		// exists but is struggling.
		s.State = Degraded
	default:
		s.State = Unavailable
	}
	return s
}
