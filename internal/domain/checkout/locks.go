// internal/domain/checkout/locks.go
package checkout

import (
	"slices"
	"sync"
)

// productLocks serializes in-process commits that touch the same products.
// The database compare-and-set remains the authority across processes.
type productLocks struct {
	mu    sync.Mutex
	locks map[uint]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newProductLocks() *productLocks {
	return &productLocks{locks: make(map[uint]*refLock)}
}

// acquire locks every product in ascending ID order and returns the
// matching release function.
func (p *productLocks) acquire(productIDs []uint) (release func()) {
	ids := slices.Clone(productIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]*refLock, 0, len(ids))
	for _, id := range ids {
		l := p.ref(id)
		l.Lock()
		held = append(held, l)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
			p.unref(ids[i])
		}
	}
}

func (p *productLocks) ref(id uint) *refLock {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[id]
	if !ok {
		l = &refLock{}
		p.locks[id] = l
	}
	l.refs++
	return l
}

func (p *productLocks) unref(id uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l := p.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(p.locks, id)
	}
}

func (p *productLocks) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
