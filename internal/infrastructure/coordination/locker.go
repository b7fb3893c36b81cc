// Package coordination serializes operations that contend on the same
// cooperative, listing, holding or project before their transaction opens.
//
// Callers take exactly one key per operation and never while holding a
// database transaction. Row locks inside the transaction remain the
// authority; the locker keeps contending requests from piling up on them and
// extends the guarantee across instances when backed by Redis.
package coordination

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"coopshares-backend/internal/observability"

	"github.com/google/uuid"
)

// ErrNotObtained is returned when a lock could not be acquired in time.
var ErrNotObtained = errors.New("resource is busy, try again")

// Release frees a lock obtained from a Locker.
type Release func()

// Locker hands out exclusive locks by key.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

func CooperativeKey(coopID uuid.UUID) string { return "coop:" + coopID.String() }
func ListingKey(listingID uuid.UUID) string  { return "listing:" + listingID.String() }
func ProjectKey(projectID uuid.UUID) string  { return "project:" + projectID.String() }

func HoldingKey(coopID, userID uuid.UUID) string {
	return fmt.Sprintf("holding:%s:%s", coopID, userID)
}

// Acquire uses l when set and a no-op lock otherwise. Wait time is recorded
// per key scope.
func Acquire(ctx context.Context, l Locker, key string) (Release, error) {
	if l == nil {
		return func() {}, nil
	}
	start := time.Now()
	release, err := l.Acquire(ctx, key)
	outcome := "obtained"
	if err != nil {
		outcome = "busy"
	}
	observability.LockWait.WithLabelValues(scope(key), outcome).Observe(time.Since(start).Seconds())
	return release, err
}

func scope(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// LocalLocker is an in-process keyed mutex.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (Release, error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*keyLock)
	}
	k, ok := l.locks[key]
	if !ok {
		k = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = k
	}
	k.refs++
	l.mu.Unlock()

	select {
	case k.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, k)
		return nil, fmt.Errorf("%w: %v", ErrNotObtained, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-k.ch
			l.drop(key, k)
		})
	}, nil
}

func (l *LocalLocker) drop(key string, k *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k.refs--
	if k.refs == 0 {
		delete(l.locks, key)
	}
}

// held reports the number of keys currently tracked.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
