// Package status serves the coordinator state over HTTP.
package status

import (
	"context"
	"net/http"
	"time"

	"github.com/danmuck/nativeload/internal/loader"
	"github.com/danmuck/nativeload/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Source is the read side of a loader.Coordinator.
type Source interface {
	State(ctx context.Context) loader.State
	Telemetry(ctx context.Context) loader.Telemetry
	Path() loader.LoadPath
}

type Server struct {
	addr      string
	source    Source
	startedAt time.Time
	router    *gin.Engine
}

func NewServer(addr string, source Source, corsOrigins []string, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{addr: addr, source: source, startedAt: time.Now(), router: gin.New()}

	s.router.Use(gin.Recovery())
	s.router.Use(observability.RequestLogger(logger))
	s.router.Use(observability.RequestMetrics("status"))
	if len(corsOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins: corsOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Serve() error {
	return s.router.Run(s.addr)
}

func (s *Server) routes() {
	observability.RegisterMetrics()
	s.router.GET("/health", s.health)
	s.router.GET("/state", s.state)
	s.router.GET("/telemetry", s.telemetry)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// health answers 503 until the native subsystem is initialized.
func (s *Server) health(c *gin.Context) {
	st := s.source.State(c.Request.Context())
	code := http.StatusOK
	status := "ok"
	if !st.Initialized() {
		code = http.StatusServiceUnavailable
		status = "starting"
	}
	c.JSON(code, gin.H{
		"status":  status,
		"phase":   st.Phase.String(),
		"uptime":  time.Since(s.startedAt).String(),
		"service": "nativeload",
	})
}

func (s *Server) state(c *gin.Context) {
	st := s.source.State(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"path":                  string(s.source.Path()),
		"phase":                 st.Phase.String(),
		"loaded":                st.Loaded(),
		"initialized":           st.Initialized(),
		"command_line_switched": st.CommandLineSwitched,
	})
}

func (s *Server) telemetry(c *gin.Context) {
	t := s.source.Telemetry(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"used_shared_relocation_sharing": t.UsedSharedRelocationSharing,
		"fixed_address_load_failed":      t.FixedAddressLoadFailed,
		"archive_direct_load_supported":  t.ArchiveDirectLoadSupported,
		"used_workaround_loader":         t.UsedWorkaroundLoader,
	})
}
