package bridge

import (
	"context"
	"sync"

	"github.com/go-ctap/passkey/pkg/ceremony"
)

// Slot is the per-instance pending-ceremony state: at most one ceremony
// may be in flight at a time. Begin claims the slot; the returned
// Pending releases it on every completion path before the caller is
// notified, so a stuck slot can never block later ceremonies.
type Slot struct {
	mu   sync.Mutex
	busy bool
}

// Begin claims the slot for one ceremony. A second ceremony issued
// while one is pending rejects immediately with invalidRequest; the
// slot is never silently reassigned.
func Begin[T any](s *Slot) (*Pending[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return nil, ceremony.NewError(ceremony.CodeInvalidRequest, "another ceremony is already in progress")
	}
	s.busy = true

	return &Pending[T]{
		release: func() {
			s.mu.Lock()
			s.busy = false
			s.mu.Unlock()
		},
		ch: make(chan completion[T], 1),
	}, nil
}

type completion[T any] struct {
	value T
	err   error
}

// Pending is the single-shot continuation correlating a native
// completion signal back to the caller that issued the ceremony.
// Resolve and Reject may be called from any goroutine; only the first
// call wins, later calls are ignored.
type Pending[T any] struct {
	release func()
	once    sync.Once
	ch      chan completion[T]
}

func (p *Pending[T]) Resolve(value T) {
	p.once.Do(func() {
		p.ch <- completion[T]{value: value}
	})
}

func (p *Pending[T]) Reject(err error) {
	p.once.Do(func() {
		p.ch <- completion[T]{err: err}
	})
}

// Wait blocks until the ceremony completes or ctx is done. The slot is
// released unconditionally before Wait returns.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	defer p.release()

	select {
	case c := <-p.ch:
		return c.value, c.err
	case <-ctx.Done():
		var zero T
		return zero, ceremony.NewError(ceremony.CodeCancelled, ctx.Err().Error())
	}
}

// Abort releases the slot without waiting; used when dispatch to the
// native layer fails before any completion can arrive.
func (p *Pending[T]) Abort() {
	p.release()
}
