package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/noah-isme/outreach-mail/internal/common"
)

// Limiter decides whether one more event for key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error)
}

// Ulule adapts a ulule limiter store. Counters are scoped per rate so the
// same store can back several policies.
type Ulule struct {
	Store limiter.Store

	mu       sync.Mutex
	limiters map[limiter.Rate]*limiter.Limiter
}

// NewMemory returns a process-local limiter.
func NewMemory() *Ulule {
	return &Ulule{Store: memory.NewStore()}
}

// Allow counts one event against key.
func (u *Ulule) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if u == nil || u.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lctx, err := u.limiterFor(window, max).Get(ctx, fmt.Sprintf("%s:%d:%s", window, max, key))
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}

func (u *Ulule) limiterFor(window time.Duration, max int) *limiter.Limiter {
	rate := limiter.Rate{Period: window, Limit: int64(max)}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.limiters == nil {
		u.limiters = map[limiter.Rate]*limiter.Limiter{}
	}
	l, ok := u.limiters[rate]
	if !ok {
		l = limiter.New(u.Store, rate)
		u.limiters[rate] = l
	}
	return l
}

// ClientKey keys events by the caller's address under prefix.
func ClientKey(prefix string) func(*http.Request) string {
	return func(r *http.Request) string {
		return prefix + common.ClientIP(r)
	}
}
