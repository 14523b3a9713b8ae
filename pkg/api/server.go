package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
	CORSOrigin     string // empty means same-origin only
	ArtifactDir    string // served at ArtifactURL
	ArtifactURL    string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:           addr,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   65 * time.Second,
		RequestTimeout: 60 * time.Second,
		MaxConcurrent:  runtime.NumCPU() * 2,
		ArtifactDir:    "static/graph",
		ArtifactURL:    "/static/graph",
	}
}

// Templates parses the embedded HTML templates.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// NewEngine creates the gin engine with middleware and all routes.
func NewEngine(cfg ServerConfig, handlers *Handlers, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(log))
	r.Use(RequestLogger(log))
	r.Use(SecurityHeaders())
	if cfg.CORSOrigin != "" {
		cc := cors.DefaultConfig()
		cc.AllowOrigins = []string{cfg.CORSOrigin}
		cc.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
		r.Use(cors.New(cc))
	}
	if cfg.MaxConcurrent > 0 {
		r.Use(ConcurrencyLimit(cfg.MaxConcurrent))
	}
	r.Use(Timeout(cfg.RequestTimeout))

	r.SetHTMLTemplate(Templates())
	if cfg.ArtifactDir != "" {
		r.Static(cfg.ArtifactURL, cfg.ArtifactDir)
	}
	handlers.RegisterRoutes(&r.RouterGroup)
	return r
}

// NewServer wraps the engine in an http.Server.
func NewServer(cfg ServerConfig, engine http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
}

// ListenAndServe starts the server and blocks until a shutdown signal or a
// server error.
func ListenAndServe(srv *http.Server, log *zap.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
