package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/parley-chat/parley-backend/pkg/clientip"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'self'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity is the middleware chain applied when ENV=production.
func ProductionSecurity() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		RateLimitMiddleware,
		HistoryRateLimit,
	}
}

// --- Conversation history rate limit (per-IP token bucket) ---
//
// History fetches spike after a reconnect while clients re-sync missed
// messages, so the bucket allows bursts but caps sustained rates.
// Auth: 30 req/min, burst 20. Anonymous: 10 req/min, burst 5.

const (
	historyAuthRPS        = 0.5 // 30/min
	historyAuthBurst      = 20
	historyAnonRPS        = 0.17 // ~10/min
	historyAnonBurst      = 5
	historyCleanupEvery   = 5 * time.Minute
	historyLimiterIdleTTL = 30 * time.Minute
)

type historyLimiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

var (
	historyEntries    = make(map[string]*historyLimiterEntry)
	historyEntriesMu  sync.Mutex
	historyCleanupRun bool
)

func getHistoryLimiter(ip string, authenticated bool) *rate.Limiter {
	key := "anon:" + ip
	if authenticated {
		key = "auth:" + ip
	}

	historyEntriesMu.Lock()
	defer historyEntriesMu.Unlock()
	startHistoryCleanupOnce()

	e, ok := historyEntries[key]
	if !ok {
		rps, burst := historyAnonRPS, historyAnonBurst
		if authenticated {
			rps, burst = historyAuthRPS, historyAuthBurst
		}
		e = &historyLimiterEntry{
			limiter: rate.NewLimiter(rate.Limit(rps), burst),
			lastUse: time.Now(),
		}
		historyEntries[key] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func startHistoryCleanupOnce() {
	if historyCleanupRun {
		return
	}
	historyCleanupRun = true
	go func() {
		ticker := time.NewTicker(historyCleanupEvery)
		defer ticker.Stop()
		for range ticker.C {
			historyEntriesMu.Lock()
			now := time.Now()
			for k, e := range historyEntries {
				if now.Sub(e.lastUse) > historyLimiterIdleTTL {
					delete(historyEntries, k)
				}
			}
			historyEntriesMu.Unlock()
		}
	}()
}

func hasBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && len(strings.TrimPrefix(auth, "Bearer ")) > 0
}

// HistoryRateLimit applies rate limiting to conversation history fetches.
// Returns 429 with X-RateLimit headers when exceeded.
func HistoryRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.HasPrefix(r.URL.Path, "/api/chat") {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientip.RealClientIP(r)
		auth := hasBearerToken(r)
		limiter := getHistoryLimiter(ip, auth)

		limit := historyAnonBurst
		if auth {
			limit = historyAuthBurst
		}

		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many chat history requests. Please slow down."}`))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		next.ServeHTTP(w, r)
	})
}
