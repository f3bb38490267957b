package registry

import (
	"slices"
	"sync"

	"github.com/wippyai/ftbind/errors"
)

// Guard takes the exclusive lock of every distinct root among handles and
// returns a function that releases them. Locks are acquired in ascending
// root order, so concurrent guards over overlapping trees cannot deadlock.
//
// Liveness is checked again once all locks are held: if any handle was
// released while Guard waited, every lock is dropped and already_released
// is returned.
func (r *Registry) Guard(handles ...Handle) (unlock func(), err error) {
	roots := make([]Handle, 0, len(handles))
	locks := make(map[Handle]*sync.Mutex, len(handles))

	r.mu.Lock()
	for _, h := range handles {
		if h == 0 {
			r.mu.Unlock()
			return nil, errors.InvalidHandle(errors.PhaseRegistry, "guard", 0)
		}
		s := r.lookup(h)
		if s == nil {
			r.mu.Unlock()
			return nil, errors.AlreadyReleased(errors.PhaseRegistry, "guard", uint64(h))
		}
		if _, seen := locks[s.root]; !seen {
			locks[s.root] = r.roots[s.root]
			roots = append(roots, s.root)
		}
	}
	r.mu.Unlock()

	sortHandles(roots)
	for _, root := range roots {
		locks[root].Lock()
	}
	unlock = func() {
		for i := len(roots) - 1; i >= 0; i-- {
			locks[roots[i]].Unlock()
		}
	}

	r.mu.Lock()
	for _, h := range handles {
		if r.lookup(h) == nil {
			r.mu.Unlock()
			unlock()
			return nil, errors.AlreadyReleased(errors.PhaseRegistry, "guard", uint64(h))
		}
	}
	r.mu.Unlock()

	return unlock, nil
}

func sortHandles(hs []Handle) {
	slices.Sort(hs)
}
