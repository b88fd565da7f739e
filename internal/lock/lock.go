// Package lock provides short-lived exclusive leases keyed by name.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrNotAcquired = errors.New("lock_not_acquired")

var Module = fx.Module("lock",
	fx.Provide(New),
)

type Locker interface {
	// Acquire takes key for at most ttl. It returns ErrNotAcquired when another
	// holder owns the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

type Lease interface {
	Key() string
	Token() string
	Release(ctx context.Context) error
}

type Params struct {
	fx.In

	Client *redis.Client `optional:"true"`
	Log    *zap.Logger
}

func New(p Params) Locker {
	if p.Client == nil {
		return NewLocal()
	}
	return NewRedis(p.Client, p.Log)
}
