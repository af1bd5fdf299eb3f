package locksvc

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// Local serializes the holders of a key within this process.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch      chan struct{} // holds a token while the key is locked
	waiters int
}

var _ core.TryLocker = (*Local)(nil)

func NewLocal() *Local {
	return &Local{slots: make(map[string]*slot)}
}

func (l *Local) acquire(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.waiters++
	return s
}

func (l *Local) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.waiters--
	if s.waiters == 0 {
		delete(l.slots, key)
	}
}

// Lock blocks until the key is free or `ctx` is done.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	s := l.acquire(key)
	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, errors.Wrapf(ctx.Err(), "waiting for lock %s", key)
	}
	return l.unlockFunc(key, s), nil
}

// TryLock takes the lock if it is free, without waiting.
func (l *Local) TryLock(_ context.Context, key string) (func(), bool, error) {
	s := l.acquire(key)
	select {
	case s.ch <- struct{}{}:
	default:
		l.release(key, s)
		return nil, false, nil
	}
	return l.unlockFunc(key, s), true, nil
}

func (l *Local) unlockFunc(key string, s *slot) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
	}
}

// Len returns the number of keys currently held or awaited.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
