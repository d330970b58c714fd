package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/youruser/certgen/internal/api"
	"github.com/youruser/certgen/internal/bulk"
	"github.com/youruser/certgen/internal/config"
	"github.com/youruser/certgen/internal/httpmiddleware"
	imagepkg "github.com/youruser/certgen/internal/image"
	"github.com/youruser/certgen/internal/pdf"
	"github.com/youruser/certgen/internal/session"
)

// finished bulk jobs kept for download
const keepJobs = 20

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	store, err := session.New(cfg.AdminPassword, time.Now())
	if err != nil {
		return err
	}

	dirs := cfg.FontDirs
	if len(dirs) == 0 {
		dirs = imagepkg.DefaultFontDirs
	}
	fonts := imagepkg.NewFontResolver(dirs)
	packager := pdf.NewPackager()
	pipeline := &bulk.Pipeline{
		Fonts:    fonts,
		Workers:  cfg.BulkWorkers,
		MaxNames: cfg.MaxBulkNames,
	}
	jobs := bulk.NewManager(pipeline, store, keepJobs)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/health", "/metrics"},
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin, "rate limit exceeded").GinMiddleware())
	r.MaxMultipartMemory = cfg.MaxTemplateBytes + 1<<20

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	api.RegisterRoutes(r, api.New(cfg, store, fonts, packager, jobs))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.RenderTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("starting server on %s (public url %s)", srv.Addr, cfg.PublicBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, st := range jobs.List() {
		if !st.State.Finished() {
			_, _ = jobs.Cancel(st.ID)
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}
	log.Println("server exited")
	return nil
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
