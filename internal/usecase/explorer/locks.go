package explorer

import (
	"errors"
	"sync"
)

var errStale = errors.New("session changed during lookup")

// sessionLocks serializes updates of one session without blocking the
// others. Entries live only while someone holds or waits for them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func (l *sessionLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sessionLock)
	}
	sl, ok := l.locks[id]
	if !ok {
		sl = &sessionLock{}
		l.locks[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()

		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
