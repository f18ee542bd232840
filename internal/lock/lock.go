package lock

import (
	"context"
	"sync"
	"time"
)

// Locker выдаёт именованные блокировки с владельцем и сроком жизни.
type Locker interface {
	// Acquire возвращает false, если ключ уже занят другим владельцем.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	// Release снимает блокировку, только если ею владеет owner.
	Release(ctx context.Context, key, owner string) error
}

// MemoryLocker - блокировки в памяти процесса.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryLease
	clock func() time.Time
}

type memoryLease struct {
	owner   string
	expires time.Time
}

// NewMemoryLocker создает MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryLease), clock: time.Now}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if lease, ok := l.held[key]; ok && lease.owner != owner && (lease.expires.IsZero() || now.Before(lease.expires)) {
		return false, nil
	}
	lease := memoryLease{owner: owner}
	if ttl > 0 {
		lease.expires = now.Add(ttl)
	}
	l.held[key] = lease
	return true, nil
}

func (l *MemoryLocker) Release(ctx context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lease, ok := l.held[key]; ok && lease.owner == owner {
		delete(l.held, key)
	}
	return nil
}
