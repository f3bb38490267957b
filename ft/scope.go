package ft

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

// Closer is implemented by every wrapper.
type Closer interface {
	Close(ctx context.Context) error
}

// Scope closes the resources added to it in reverse order of addition, so
// children added after their parents are closed first.
type Scope struct {
	items []Closer
	mu    sync.Mutex
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Add registers c to be closed with the scope.
func (s *Scope) Add(c Closer) {
	s.mu.Lock()
	s.items = append(s.items, c)
	s.mu.Unlock()
}

// Detach removes c from the scope without closing it. It reports whether c
// was found.
func (s *Scope) Detach(c Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i] == c {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of resources the scope will close.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Close closes every resource, newest first, and empties the scope. All
// resources are attempted; their errors are combined.
func (s *Scope) Close(ctx context.Context) error {
	s.mu.Lock()
	items := s.items
	s.items = nil
	s.mu.Unlock()

	var err error
	for i := len(items) - 1; i >= 0; i-- {
		err = multierr.Append(err, items[i].Close(ctx))
	}
	return err
}
