package main

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

func main() {
	_ = godotenv.Load()

	cfg := loadConfig()
	setupLogger(cfg.IsProduction)
	defer func() { _ = logger.Sync() }()
	logInfo("Starting Daily Bingo in %s mode", lo.Ternary(cfg.IsProduction, "production", "development"))

	phrases, err := loadPhrases(cfg.PhrasesFile)
	if err != nil {
		logFatal("Failed to load phrases: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logFatal("Failed to open session store: %v", err)
	}
	defer closeStore()

	app := newApp(cfg, phrases, st)
	logInfo("Game day rolls over at %02d:00 UTC", cfg.ResetHourUTC)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := app.setupRouter()

	go app.runCleanup(ctx)
	app.startServer(router, cfg.Port, cancel)
}

// setupRouter builds the gin engine with middleware, templates and routes.
func (app *App) setupRouter() *gin.Engine {
	router := gin.Default()

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(requestIDMiddleware())
	router.Use(app.cacheHeadersMiddleware())

	router.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int { return a + b },
	})
	if app.IsProduction && dirExists("dist") {
		logInfo("Serving assets from dist/ directory")
		router.LoadHTMLGlob("dist/templates/*.html")
		router.Static("/static", "./dist/static")
	} else {
		logInfo("Serving development assets from source directories")
		router.LoadHTMLGlob("templates/*.html")
		router.Static("/static", "./static")
	}

	router.GET(RouteHome, app.homeHandler)
	router.POST(RouteToggle, app.rateLimitMiddleware(), app.toggleHandler)
	router.GET(RouteState, app.stateHandler)
	router.GET(RouteHealthz, app.healthzHandler)
	return router
}

// startServer serves until SIGINT/SIGTERM, then shuts down gracefully and
// calls stop to end background work.
func (app *App) startServer(router *gin.Engine, port string, stop context.CancelFunc) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		logInfo("Shutdown signal received, shutting down server gracefully...")
		stop()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}
