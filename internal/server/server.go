package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"document-qg/internal/config"
	"document-qg/internal/ingest"
	"document-qg/internal/metrics"
	"document-qg/internal/models"
	"document-qg/internal/rag"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	detailNotPDF      = "Invalid file type. Only PDF files are allowed."
	detailNoText      = "Could not extract text from the PDF."
	detailNotIngested = "Vector store not found. Please ingest a document via the /ingest endpoint."
	detailEmpty       = "The agent could not generate content for the given topic."
)

type Generator interface {
	RunGeneration(ctx context.Context, req models.GenerationRequest) (*models.GeneratedContent, error)
}

type Ingester interface {
	IngestPDF(ctx context.Context, filename string, r io.Reader) (*models.IngestResult, error)
}

type Server struct {
	cfg       *config.ServerConfig
	generator Generator
	ingester  Ingester
	metrics   *metrics.Metrics
	router    *gin.Engine
}

func New(cfg *config.ServerConfig, generator Generator, ingester Ingester, m *metrics.Metrics) *Server {
	s := &Server{cfg: cfg, generator: generator, ingester: ingester, metrics: m}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.GET("/", s.root)
	r.POST("/ingest", s.ingest)
	r.POST("/generate/questions", s.generate)
	r.POST("/generate/content", s.generate)
	r.GET("/metrics", gin.WrapH(m.Handler()))
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "API is running. Metrics are served at /metrics."})
}

func (s *Server) ingest(c *gin.Context) {
	maxBytes := s.cfg.MaxUploadMB << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			detail(c, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		detail(c, http.StatusUnprocessableEntity, "A PDF file is required in the 'file' form field.")
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != "application/pdf" {
		detail(c, http.StatusBadRequest, detailNotPDF)
		return
	}

	res, err := s.ingester.IngestPDF(c.Request.Context(), header.Filename, file)
	if err != nil {
		s.metrics.ObserveIngest("error")
		switch {
		case errors.Is(err, ingest.ErrNoText):
			detail(c, http.StatusBadRequest, detailNoText)
		case errors.Is(err, ingest.ErrUnsupportedFile):
			detail(c, http.StatusBadRequest, detailNotPDF)
		default:
			log.Error().Err(err).Str("file", header.Filename).Msg("Ingestion failed")
			detail(c, http.StatusInternalServerError, "An error occurred: "+err.Error())
		}
		return
	}
	s.metrics.ObserveIngest("ok")
	c.JSON(http.StatusOK, res)
}

type generateRequest struct {
	Topic         *string `json:"topic"`
	ContentType   string  `json:"content_type" binding:"required"`
	NumQuestions  *int    `json:"num_questions"`
	ContextChunks *int    `json:"context_chunks"`
}

// toModel maps absent counts to zero so defaults apply; explicit zeros are
// rejected.
func (r generateRequest) toModel() (models.GenerationRequest, error) {
	req := models.GenerationRequest{ContentType: models.ContentType(r.ContentType)}
	if r.Topic != nil {
		req.Topic = strings.TrimSpace(*r.Topic)
	}
	if r.NumQuestions != nil {
		if *r.NumQuestions == 0 {
			return req, errors.New("num_questions must be at least 1")
		}
		req.NumQuestions = *r.NumQuestions
	}
	if r.ContextChunks != nil {
		if *r.ContextChunks == 0 {
			return req, errors.New("context_chunks must be at least 1")
		}
		req.ContextChunks = *r.ContextChunks
	}
	return req, nil
}

func (s *Server) generate(c *gin.Context) {
	start := time.Now()

	var body generateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.metrics.ObserveGeneration("unknown", "invalid_input", time.Since(start))
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	req, err := body.toModel()
	if err != nil {
		s.metrics.ObserveGeneration(contentLabel(body.ContentType), "invalid_input", time.Since(start))
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	out, err := s.generator.RunGeneration(c.Request.Context(), req)
	if err != nil {
		status, label, msg := classify(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("content_type", body.ContentType).Msg("Generation failed")
		}
		s.metrics.ObserveGeneration(contentLabel(body.ContentType), label, time.Since(start))
		detail(c, status, msg)
		return
	}

	s.metrics.ObserveGeneration(contentLabel(body.ContentType), "ok", time.Since(start))
	c.JSON(http.StatusOK, out)
}

func classify(err error) (status int, label, msg string) {
	switch {
	case errors.Is(err, rag.ErrInvalidInput):
		return http.StatusUnprocessableEntity, "invalid_input", err.Error()
	case errors.Is(err, rag.ErrNotIngested):
		return http.StatusBadRequest, "not_ingested", detailNotIngested
	case errors.Is(err, rag.ErrEmptyResult):
		return http.StatusNotFound, "empty", detailEmpty
	default:
		return http.StatusInternalServerError, "error", "An error occurred: " + err.Error()
	}
}

// contentLabel keeps metric label values to the known content types.
func contentLabel(s string) string {
	if ct, err := models.ParseContentType(s); err == nil {
		return string(ct)
	}
	return "unknown"
}
