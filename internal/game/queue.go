package game

// defaultQueueDepth is the per-seat buffer for human players. Human input
// rates never approach it, so it behaves as unbounded in practice while
// still protecting the server from a runaway client.
const defaultQueueDepth = 64

// actionQueue is a bounded per-seat buffer of pending actions.
type actionQueue struct {
	ch chan Action
}

func newActionQueue(depth int) *actionQueue {
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	return &actionQueue{ch: make(chan Action, depth)}
}

// tryPut enqueues without blocking. Reports false on overflow.
func (q *actionQueue) tryPut(a Action) bool {
	select {
	case q.ch <- a:
		return true
	default:
		return false
	}
}

// tryGet dequeues without blocking.
func (q *actionQueue) tryGet() (Action, bool) {
	select {
	case a := <-q.ch:
		return a, true
	default:
		return nil, false
	}
}

// get blocks until an action is available. Used only when block_for_ai
// makes the tick wait on an NPC seat.
func (q *actionQueue) get() Action {
	return <-q.ch
}

func (q *actionQueue) clear() {
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}

func (q *actionQueue) len() int { return len(q.ch) }

// stateFeed is a single-slot, last-wins channel carrying game states to an
// NPC worker. A push replaces any unconsumed state: stale states would only
// waste policy compute, so dropping them is the point.
type stateFeed struct {
	ch chan any
}

func newStateFeed() *stateFeed {
	return &stateFeed{ch: make(chan any, 1)}
}

func (f *stateFeed) push(s any) {
	for {
		select {
		case f.ch <- s:
			return
		default:
			select {
			case <-f.ch:
			default:
			}
		}
	}
}

// next blocks until a state is pushed.
func (f *stateFeed) next() any {
	return <-f.ch
}

// turnToken is a capacity-1 permit. The player holding a granted token is
// entitled to enqueue exactly one action. grant is lossless at one: granting
// an already-granted token does not stack permits.
type turnToken struct {
	ch chan struct{}
}

func newTurnToken() *turnToken {
	return &turnToken{ch: make(chan struct{}, 1)}
}

func (t *turnToken) tryAcquire() bool {
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}

func (t *turnToken) grant() {
	select {
	case t.ch <- struct{}{}:
	default:
	}
}

func (t *turnToken) drain() {
	select {
	case <-t.ch:
	default:
	}
}
