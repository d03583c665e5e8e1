// Package http exposes the wallet ledger and the recurrence scheduler
// as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"moneta/internal/cache"
	"moneta/internal/core"
	"moneta/internal/services"
)

// WalletAPI is the slice of the wallet service the handlers need.
type WalletAPI interface {
	CreateWallet(ctx context.Context, w core.Wallet) (int64, error)
	ListWallets(ctx context.Context) ([]core.Wallet, error)
	Overview(ctx context.Context, name string) (core.WalletOverview, error)
	ListTransactions(ctx context.Context, walletName string) ([]core.Transaction, error)
	Record(ctx context.Context, walletName string, tx core.Transaction) error
}

// SchedulerAPI is the slice of the scheduler the handlers need.
type SchedulerAPI interface {
	Add(ctx context.Context, tmpl *core.RecurringTemplate) (string, error)
	Remove(ctx context.Context, id string, policy services.DeletePolicy, now time.Time) (*core.RecurringTemplate, int, error)
	Get(id string) (*core.RecurringTemplate, error)
	List() []*core.RecurringTemplate
	EditFields(ctx context.Context, id string, edit services.TemplateEdit) error
	AddException(ctx context.Context, id string, day time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
	ProcessDue(ctx context.Context, now time.Time) (int, error)
}

type Server struct {
	http.Server
	wallets         WalletAPI
	scheduler       SchedulerAPI
	defaultCurrency string
	rateLimiter     *rateLimiter

	// overviewCache keeps wallet aggregates hot; writes to a wallet
	// invalidate its entry.
	overviewCache    *cache.LRUCache[core.WalletOverview]
	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, wallets WalletAPI, scheduler SchedulerAPI, defaultCurrency string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		wallets:          wallets,
		scheduler:        scheduler,
		defaultCurrency:  defaultCurrency,
		rateLimiter:      newRateLimiter(),
		overviewCache:    cache.NewLRUCache[core.WalletOverview](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/wallets", s.guard(s.handleCreateWallet))
	mux.HandleFunc("GET /api/wallets", s.guard(s.handleListWallets))
	mux.HandleFunc("GET /api/wallets/{name}", s.guard(s.handleWalletOverview))
	mux.HandleFunc("GET /api/wallets/{name}/transactions", s.guard(s.handleListTransactions))
	mux.HandleFunc("POST /api/wallets/{name}/transactions", s.guard(s.handleRecordTransaction))

	mux.HandleFunc("POST /api/recurring", s.guard(s.handleCreateTemplate))
	mux.HandleFunc("GET /api/recurring", s.guard(s.handleListTemplates))
	mux.HandleFunc("GET /api/recurring/{id}", s.guard(s.handleGetTemplate))
	mux.HandleFunc("PATCH /api/recurring/{id}", s.guard(s.handleEditTemplate))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.guard(s.handleDeleteTemplate))
	mux.HandleFunc("POST /api/recurring/{id}/skip", s.guard(s.handleSkipDate))
	mux.HandleFunc("POST /api/recurring/{id}/active", s.guard(s.handleSetActive))

	mux.HandleFunc("POST /api/process", s.guard(s.handleProcess))

	return s
}

// startCacheCleanup periodically drops expired overview entries.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.overviewCache.CleanExpired()
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// guard applies security headers and rate limiting on writes.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}
