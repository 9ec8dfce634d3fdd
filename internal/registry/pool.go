package registry

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrPoolExhausted is returned by Acquire when every room ID is in use.
	ErrPoolExhausted = errors.New("server at max capacity")

	// ErrDoubleFree is returned by Release for an ID that is already free.
	ErrDoubleFree = errors.New("double free on a game id")
)

// IDPool hands out room IDs in [0, max). Free IDs live in a FIFO queue so
// recently released rooms are reused last; the free map is the authoritative
// record of which IDs are claimed. Acquire claims the ID atomically, so a
// caller that fails to construct its game can hand the ID back with Release
// without ever publishing it.
type IDPool struct {
	mu   sync.Mutex
	max  int
	ids  []int
	free map[int]bool
}

func NewIDPool(max int) *IDPool {
	p := &IDPool{
		max:  max,
		ids:  make([]int, 0, max),
		free: make(map[int]bool, max),
	}
	for i := 0; i < max; i++ {
		p.ids = append(p.ids, i)
		p.free[i] = true
	}
	return p
}

// Acquire pops the next free ID and marks it claimed.
func (p *IDPool) Acquire() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.ids) == 0 {
		return 0, ErrPoolExhausted
	}
	id := p.ids[0]
	p.ids = p.ids[1:]
	if !p.free[id] {
		return 0, fmt.Errorf("id %d queued but not free", id)
	}
	p.free[id] = false
	return id, nil
}

// Release marks id free again and requeues it. Releasing an ID that is
// already free is a consistency error and is reported, not absorbed.
func (p *IDPool) Release(id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id < 0 || id >= p.max {
		return fmt.Errorf("release of out-of-range id %d", id)
	}
	if p.free[id] {
		return ErrDoubleFree
	}
	p.free[id] = true
	p.ids = append(p.ids, id)
	return nil
}

// Free reports whether id is currently unclaimed. Waiting queues use this
// to filter out stale entries whose games were already cleaned up.
func (p *IDPool) Free(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free[id]
}

// FreeIDs returns a snapshot of the queued free IDs, in dequeue order.
func (p *IDPool) FreeIDs() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.ids))
	copy(out, p.ids)
	return out
}

// FreeMap returns a snapshot of the free bitmap.
func (p *IDPool) FreeMap() map[int]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[int]bool, len(p.free))
	for id, free := range p.free {
		out[id] = free
	}
	return out
}
