package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the readiness flag. It is cleared when shutdown begins so
// load balancers stop routing new batches to the process.
func SetReady(v bool) { ready.Store(v) }

// IsReady reports the current readiness flag.
func IsReady() bool { return ready.Load() }

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingTransport(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// ErrTransportUnhealthy is reported while the mail transport's breaker is open.
var ErrTransportUnhealthy = errors.New("mail transport unavailable")

// Deps probes the live dependencies of the API process. A nil Redis client
// means the shared stores are disabled and is reported healthy.
type Deps struct {
	Transport interface{ Healthy() bool }
	Redis     *redis.Client
}

func (d Deps) PingTransport(_ context.Context, _ time.Duration) error {
	if d.Transport != nil && !d.Transport.Healthy() {
		return ErrTransportUnhealthy
	}
	return nil
}

func (d Deps) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d.Redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker          Checker
	TransportTimeout time.Duration
	RedisTimeout     time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the shutdown flag and dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !IsReady() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()
	transportStatus := "ok"
	if err := h.Checker.PingTransport(ctx, h.transportTimeout()); err != nil {
		transportStatus = err.Error()
	}
	redisStatus := "ok"
	if err := h.Checker.PingRedis(ctx, h.redisTimeout()); err != nil {
		redisStatus = err.Error()
	}
	status := map[string]string{
		"transport": transportStatus,
		"redis":     redisStatus,
	}
	w.Header().Set("Content-Type", "application/json")
	if transportStatus != "ok" || redisStatus != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) transportTimeout() time.Duration {
	if h.TransportTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.TransportTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
