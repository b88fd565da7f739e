package lock

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type entry struct {
	token   string
	expires time.Time
}

// LocalLocker coordinates holders within one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]entry
	now  func() time.Time
}

func NewLocal() *LocalLocker {
	return &LocalLocker{held: make(map[string]entry), now: time.Now}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, ok := l.held[key]; ok && now.Before(cur.expires) {
		return nil, ErrNotAcquired
	}
	token := ulid.Make().String()
	l.held[key] = entry{token: token, expires: now.Add(ttl)}
	return &localLease{locker: l, key: key, token: token}, nil
}

type localLease struct {
	locker *LocalLocker
	key    string
	token  string
}

func (r *localLease) Key() string   { return r.key }
func (r *localLease) Token() string { return r.token }

func (r *localLease) Release(context.Context) error {
	r.locker.mu.Lock()
	defer r.locker.mu.Unlock()
	if cur, ok := r.locker.held[r.key]; ok && cur.token == r.token {
		delete(r.locker.held, r.key)
	}
	return nil
}
