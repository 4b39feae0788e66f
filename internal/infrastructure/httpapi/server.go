package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"EcoAware/internal/domain"
	"EcoAware/internal/engine"
	"EcoAware/internal/knowledge"
	"EcoAware/internal/ports"
	"EcoAware/internal/scanner"
)

const shutdownTimeout = 10 * time.Second

// Analyzer runs the full analysis of a listing URL or a supplied record.
type Analyzer interface {
	Analyze(ctx context.Context, url string) (domain.Report, error)
	AnalyzeRecord(ctx context.Context, record domain.ProductRecord) (domain.Report, error)
}

// ServerDeps wires the API to the scoring components.
type ServerDeps struct {
	Addr     string
	Scorer   ports.Scorer
	Analyzer Analyzer
	Packs    knowledge.Summary
	Logger   *slog.Logger
}

// Server exposes scoring over HTTP.
type Server struct {
	addr     string
	scorer   ports.Scorer
	analyzer Analyzer
	packs    knowledge.Summary
	logger   *slog.Logger
	router   *gin.Engine
}

type blendRequest struct {
	Assessment *domain.Assessment `json:"assessment"`
	Opinion    any                `json:"opinion"`
}

type analyzeRequest struct {
	URL     string                `json:"url"`
	Product *domain.ProductRecord `json:"product"`
}

// NewServer builds the router with all routes registered.
func NewServer(deps ServerDeps) *Server {
	s := &Server{
		addr:     deps.Addr,
		scorer:   deps.Scorer,
		analyzer: deps.Analyzer,
		packs:    deps.Packs,
		logger:   deps.Logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.health)
	v1 := router.Group("/api/v1")
	{
		v1.POST("/score", s.score)
		v1.POST("/blend", s.blend)
		v1.POST("/analyze", s.analyze)
		v1.GET("/packs", s.listPacks)
	}

	s.router = router
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.info("http server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listPacks(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.packs)
}

func (s *Server) score(c *gin.Context) {
	var record domain.ProductRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "invalid product record: " + err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, s.scorer.Score(record))
}

func (s *Server) blend(c *gin.Context) {
	var req blendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "invalid blend request: " + err.Error()})
		return
	}
	if req.Assessment == nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "assessment is required"})
		return
	}

	// An unusable opinion leaves the assessment as it was.
	opinion, ok := engine.ParseOpinion(req.Opinion)
	if !ok {
		c.IndentedJSON(http.StatusOK, *req.Assessment)
		return
	}

	c.IndentedJSON(http.StatusOK, engine.ApplyOpinion(*req.Assessment, opinion))
}

func (s *Server) analyze(c *gin.Context) {
	if s.analyzer == nil {
		c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"message": "analysis is not configured"})
		return
	}

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "invalid analyze request: " + err.Error()})
		return
	}

	var (
		report domain.Report
		err    error
	)
	switch {
	case req.Product != nil:
		report, err = s.analyzer.AnalyzeRecord(c.Request.Context(), *req.Product)
	case strings.TrimSpace(req.URL) != "":
		report, err = s.analyzer.Analyze(c.Request.Context(), strings.TrimSpace(req.URL))
	default:
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "url or product is required"})
		return
	}

	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, scanner.ErrUnsupportedSite) {
			status = http.StatusUnprocessableEntity
		}
		s.warn("analyze failed", "url", req.URL, "error", err)
		c.IndentedJSON(status, gin.H{"message": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, report)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if s.logger != nil {
			s.logger.Debug("http request", "method", c.Request.Method, "path", c.FullPath(),
				"status", c.Writer.Status(), "duration", time.Since(start))
		}
	}
}

func (s *Server) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
