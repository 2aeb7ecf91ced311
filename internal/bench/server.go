// Package bench serves the HTTP bench surface of a running loop: status,
// motor mask, direct-drive motor tests, parameters and metrics. It never
// touches the output stage directly.
package bench

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/BryanSouza91/PulsingFC/internal/loop"
	"github.com/BryanSouza91/PulsingFC/internal/observability"
	"github.com/BryanSouza91/PulsingFC/internal/params"
)

// replyTimeout bounds how long a motor test waits for the loop.
const replyTimeout = time.Second

var ErrLoopBusy = errors.New("bench: control loop not accepting tests")

// ParamStore is the parameter table the bench reads and edits.
type ParamStore interface {
	Get(name string) (float64, error)
	Set(name string, value float64) error
	All() map[string]float64
}

type Server struct {
	router  *gin.Engine
	status  *loop.StatusBoard
	params  ParamStore
	tests   chan<- loop.TestCommand
	log     zerolog.Logger
	started time.Time
}

// New builds the router. Browser dashboards are allowed from origins, or
// from a local dev server when none are given.
func New(status *loop.StatusBoard, store ParamStore, tests chan<- loop.TestCommand, origins []string, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(origins),
		AllowMethods: []string{"GET", "POST", "PUT"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		router:  r,
		status:  status,
		params:  store,
		tests:   tests,
		log:     logger.With().Str("component", "bench").Logger(),
		started: time.Now(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(s.started).String(),
		})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.status.Get())
	})
	s.router.GET("/motors/mask", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"motor_mask": s.status.Get().Mask})
	})
	s.router.GET("/motors/limits", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.status.Get().Limits)
	})
	s.router.POST("/motors/test", s.motorTest)

	s.router.GET("/params", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.params.All())
	})
	s.router.GET("/params/:name", s.getParam)
	s.router.PUT("/params/:name", s.setParam)
}

type motorTestRequest struct {
	Seq        uint8  `json:"seq" binding:"required"`
	PWM        uint16 `json:"pwm" binding:"required"`
	DurationMS int    `json:"duration_ms"`
}

func (s *Server) motorTest(c *gin.Context) {
	var req motorTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply := make(chan error, 1)
	cmd := loop.TestCommand{
		Seq:      req.Seq,
		PWM:      req.PWM,
		Duration: time.Duration(req.DurationMS) * time.Millisecond,
		Reply:    reply,
	}
	select {
	case s.tests <- cmd:
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrLoopBusy.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), replyTimeout)
	defer cancel()
	select {
	case err := <-reply:
		switch {
		case errors.Is(err, loop.ErrBadSequence):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, loop.ErrArmed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			s.log.Info().Uint8("seq", req.Seq).Uint16("pwm", req.PWM).Msg("motor test started")
			c.JSON(http.StatusOK, gin.H{"status": "ok", "seq": req.Seq, "pwm": req.PWM})
		}
	case <-ctx.Done():
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": ErrLoopBusy.Error()})
	}
}

func (s *Server) getParam(c *gin.Context) {
	name := c.Param("name")
	v, err := s.params.Get(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "value": v})
}

type setParamRequest struct {
	Value *float64 `json:"value" binding:"required"`
}

func (s *Server) setParam(c *gin.Context) {
	name := c.Param("name")
	var req setParamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.params.Set(name, *req.Value); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, params.ErrUnknownParam):
			status = http.StatusNotFound
		case errors.Is(err, params.ErrInvalidParam):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s.log.Info().Str("param", name).Float64("value", *req.Value).Msg("parameter set")
	c.JSON(http.StatusOK, gin.H{"name": name, "value": *req.Value})
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("bench server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
