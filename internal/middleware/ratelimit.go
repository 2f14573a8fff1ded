package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"booking-requests-api/internal/rpc"
)

const (
	sweepEvery = time.Minute
	staleAfter = 3 * time.Minute
)

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// BridgeKeyHeader carries the shared key that lets a local relay vouch
// for the x-forwarded-for address it sends.
const BridgeKeyHeader = "x-bridge-key"

// RateLimiter keeps one token bucket per client key (the caller IP).
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	r         rate.Limit
	burst     int
	bridgeKey string
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		r:       rate.Limit(rps),
		burst:   burst,
	}
}

// Run drops stale entries every minute until ctx ends.
func (rl *RateLimiter) Run(ctx context.Context) {
	t := time.NewTicker(sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			rl.sweep(now)
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, c := range rl.clients {
		if now.Sub(c.seen) > staleAfter {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if c, ok := rl.clients[key]; ok {
		c.seen = time.Now()
		return c.lim
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.clients[key] = &client{lim: l, seen: time.Now()}
	return l
}

// TrustBridge makes loopback calls presenting key in BridgeKeyHeader be
// counted against their x-forwarded-for address. Without it the header is ignored.
func (rl *RateLimiter) TrustBridge(key string) { rl.bridgeKey = key }

func (rl *RateLimiter) Allow(key string) bool {
	return rl.get(key).Allow()
}

// methods that should be rate limited
var limited = map[string]bool{
	rpc.MethodRegister: true,
	rpc.MethodLogin:    true,
	rpc.MethodRefresh:  true,
}

func RateLimit(rl *RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !limited[info.FullMethod] {
			return next(ctx, req)
		}
		if !rl.Allow(rl.peerIP(ctx)) {
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return next(ctx, req)
	}
}

// peerIP returns the caller address. Calls relayed by the local grpc-web
// bridge carry the browser address in x-forwarded-for, trusted only along
// with the bridge key.
func (rl *RateLimiter) peerIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		host = p.Addr.String()
	}
	ip := net.ParseIP(host)
	if rl.bridgeKey == "" || ip == nil || !ip.IsLoopback() {
		return host
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return host
	}
	key := md.Get(BridgeKeyHeader)
	if len(key) == 0 || subtle.ConstantTimeCompare([]byte(key[0]), []byte(rl.bridgeKey)) != 1 {
		return host
	}
	if fwd := md.Get("x-forwarded-for"); len(fwd) > 0 && fwd[0] != "" {
		return fwd[0]
	}
	return host
}
