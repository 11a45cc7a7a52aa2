package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"dailybingo/internal/bingo"
	"dailybingo/internal/store"
)

// App holds the running service: the board controller, the snapshot store
// and the per-session entries in front of it.
type App struct {
	Controller *bingo.Controller
	Store      store.Store

	// CacheBoards keeps each session's board in memory between requests.
	// It is off for shared stores, where another instance may have written
	// a newer board.
	CacheBoards bool

	Sessions     map[string]*sessionEntry // live sessions by ID
	SessionMutex sync.Mutex               // guards Sessions and each entry's refs and lastSeen

	LimiterMap   map[string]*limiterEntry
	LimiterMutex sync.Mutex

	PhraseCount      int
	IsProduction     bool
	CookieMaxAge     time.Duration
	StaticCacheAge   time.Duration
	SessionTimeout   time.Duration
	CacheIdleTimeout time.Duration
	CleanupInterval  time.Duration
	RateLimitRPS     int
	RateLimitBurst   int
	StartTime        time.Time

	// Now is the clock used for day keys and idle tracking; tests replace it.
	Now func() time.Time
}

// sessionEntry serializes one session's read-modify-write. Its mu is held
// across store I/O; App.SessionMutex never is.
type sessionEntry struct {
	mu    sync.Mutex
	state *bingo.State // guarded by mu; nil when not loaded or not cached

	refs     int       // requests using the entry
	lastSeen time.Time // last acquire
}

// limiterEntry is one client's toggle rate limiter.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newApp wires an App from configuration, a phrase pool and a store.
func newApp(cfg Config, phrases []string, st store.Store) *App {
	dealer := bingo.NewDealer(phrases, nil)
	return &App{
		Controller:       bingo.NewController(dealer, cfg.ResetHourUTC),
		Store:            st,
		CacheBoards:      cfg.PGDSN == "",
		Sessions:         make(map[string]*sessionEntry),
		LimiterMap:       make(map[string]*limiterEntry),
		PhraseCount:      dealer.PoolSize(),
		IsProduction:     cfg.IsProduction,
		CookieMaxAge:     cfg.CookieMaxAge,
		StaticCacheAge:   cfg.StaticCacheAge,
		SessionTimeout:   cfg.SessionTimeout,
		CacheIdleTimeout: cfg.CacheIdleTimeout,
		CleanupInterval:  cfg.CleanupInterval,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
		StartTime:        time.Now(),
		Now:              time.Now,
	}
}
