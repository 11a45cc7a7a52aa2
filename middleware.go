package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	"golang.org/x/time/rate"
)

// maxRequestIDLen bounds request IDs accepted from upstream proxies.
const maxRequestIDLen = 64

// getLimiter returns the toggle limiter for a client, creating it on first use.
func (app *App) getLimiter(key string) *rate.Limiter {
	now := app.Now()
	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()
	if e, ok := app.LimiterMap[key]; ok {
		e.lastSeen = now
		return e.limiter
	}

	rps := max(app.RateLimitRPS, 1)
	lim := rate.NewLimiter(rate.Limit(rps), max(app.RateLimitBurst, 1))
	app.LimiterMap[key] = &limiterEntry{limiter: lim, lastSeen: now}
	return lim
}

// sweepLimiters drops limiters idle longer than CacheIdleTimeout and returns
// how many were dropped.
func (app *App) sweepLimiters(now time.Time) int {
	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()
	swept := 0
	for key, e := range app.LimiterMap {
		if app.idle(e.lastSeen, now) {
			delete(app.LimiterMap, key)
			swept++
		}
	}
	return swept
}

// rateLimitMiddleware limits card toggles per client IP. Session cookies
// are free to mint, so they are not used as the key.
func (app *App) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if app.getLimiter(ip).Allow() {
			c.Next()
			return
		}
		logWarn("%sToggle rate limit hit by %q on card %s", reqPrefix(c.Request.Context()), ip, c.Param("index"))
		if c.GetHeader("HX-Request") == "true" {
			c.Header("HX-Trigger", EventRateLimit)
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": ErrorTooManyRequests})
	}
}

// requestIDMiddleware tags each request with an ID for log correlation,
// reusing a well-formed X-Request-Id from upstream.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-Id")
		if !validRequestID(reqID) {
			reqID = uuid.NewString()
		}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDKey, reqID))
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}

// validRequestID accepts short IDs of letters, digits, '-', '_' and '.'.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	return strings.IndexFunc(id, func(r rune) bool {
		return !(r == '-' || r == '_' || r == '.' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'))
	}) < 0
}

// cacheHeadersMiddleware lets browsers cache static assets in production.
// Everything else, and everything in development, is no-store so a board
// is never served stale.
func (app *App) cacheHeadersMiddleware() gin.HandlerFunc {
	static := cachecontrol.New(cachecontrol.Config{
		Public: true,
		MaxAge: cachecontrol.Duration(app.StaticCacheAge),
	})
	noStore := cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})
	return func(c *gin.Context) {
		if app.IsProduction && strings.HasPrefix(c.Request.URL.Path, "/static/") {
			static(c)
			c.Header("Vary", "Accept-Encoding")
			return
		}
		noStore(c)
	}
}
