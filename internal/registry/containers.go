package registry

import "sync"

// Map is a mutex-guarded map. Each operation is individually atomic;
// cross-container consistency is the caller's responsibility.
type Map[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{items: make(map[K]V)}
}

func (m *Map[K, V]) Set(k K, v V) {
	m.mu.Lock()
	m.items[k] = v
	m.mu.Unlock()
}

func (m *Map[K, V]) Get(k K) (V, bool) {
	m.mu.RLock()
	v, ok := m.items[k]
	m.mu.RUnlock()
	return v, ok
}

func (m *Map[K, V]) Delete(k K) {
	m.mu.Lock()
	delete(m.items, k)
	m.mu.Unlock()
}

func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Keys returns a snapshot of the current keys.
func (m *Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]K, 0, len(m.items))
	for k := range m.items {
		out = append(out, k)
	}
	return out
}

// Range walks a snapshot of the map taken under the lock. The callback runs
// without the lock held, so it may call back into the map.
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	m.mu.RLock()
	type pair struct {
		k K
		v V
	}
	snapshot := make([]pair, 0, len(m.items))
	for k, v := range m.items {
		snapshot = append(snapshot, pair{k, v})
	}
	m.mu.RUnlock()

	for _, p := range snapshot {
		if !fn(p.k, p.v) {
			return
		}
	}
}

// Set is a mutex-guarded set.
type Set[T comparable] struct {
	mu    sync.RWMutex
	items map[T]struct{}
}

func NewSet[T comparable]() *Set[T] {
	return &Set[T]{items: make(map[T]struct{})}
}

func (s *Set[T]) Add(v T) {
	s.mu.Lock()
	s.items[v] = struct{}{}
	s.mu.Unlock()
}

func (s *Set[T]) Remove(v T) {
	s.mu.Lock()
	delete(s.items, v)
	s.mu.Unlock()
}

func (s *Set[T]) Has(v T) bool {
	s.mu.RLock()
	_, ok := s.items[v]
	s.mu.RUnlock()
	return ok
}

func (s *Set[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns a snapshot of the set's members.
func (s *Set[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.items))
	for v := range s.items {
		out = append(out, v)
	}
	return out
}

// Queue is a mutex-guarded FIFO.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
}

// TryPop removes and returns the head of the queue, if any.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items = q.items[1:]
	return v, true
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Items returns a snapshot of the queued values, head first.
func (q *Queue[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}
