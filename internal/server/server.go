// Package server exposes the poster pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/core/model"
	"github.com/agenthands/posterlens/internal/logging"
)

const (
	defaultTopN  = 20
	maxTopN      = 500
	formFileName = "file"
)

// PosterService is the pipeline as seen by HTTP handlers.
type PosterService interface {
	Process(ctx context.Context, raw []byte) (*model.PipelineResult, error)
	Similar(ctx context.Context, raw []byte, limit int) ([]model.SimilarMatch, error)
	Debug(ctx context.Context, raw []byte, topN int) (*model.DebugReport, error)
}

type Server struct {
	Pipeline PosterService
	cfg      config.ServerConfig
	logger   zerolog.Logger
}

func NewServer(pipeline PosterService, cfg config.ServerConfig, logger zerolog.Logger) *Server {
	return &Server{
		Pipeline: pipeline,
		cfg:      cfg,
		logger:   logger.With().Str("component", "http").Logger(),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.GinMiddleware(s.logger))
	if s.cfg.MaxUploadMB > 0 {
		// Leave room for multipart framing around the file itself.
		r.MaxMultipartMemory = int64(s.cfg.MaxUploadMB+1) << 20
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1", s.limitBody(), s.requestTimeout())
	api.POST("/photo/lookup", s.Lookup)
	api.POST("/photo/similar", s.Similar)
	api.POST("/photo/debug", s.Debug)

	return r
}

// limitBody caps the request body before the multipart parser buffers or
// spills it, leaving room for the framing around the file.
func (s *Server) limitBody() gin.HandlerFunc {
	limit := int64(s.cfg.MaxUploadMB+1) << 20
	return func(c *gin.Context) {
		if s.cfg.MaxUploadMB > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func (s *Server) requestTimeout() gin.HandlerFunc {
	timeout := s.cfg.RequestTimeout()
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) Lookup(c *gin.Context) {
	raw, ok := s.readUpload(c, false)
	if !ok {
		return
	}

	res, err := s.Pipeline.Process(c.Request.Context(), raw)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, LookupResponse{
		Action:  res.Action,
		EventID: res.Record.ID,
		Tier:    res.Tier,
		Event:   newEventDTO(res.Record),
	})
}

func (s *Server) Similar(c *gin.Context) {
	raw, ok := s.readUpload(c, true)
	if !ok {
		return
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matches, err := s.Pipeline.Similar(c.Request.Context(), raw, limit)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := SimilarResponse{QueryMatches: make([]SimilarDTO, 0, len(matches))}
	for _, m := range matches {
		resp.QueryMatches = append(resp.QueryMatches, SimilarDTO{ID: m.Record.ID, Title: m.Record.Title, Distance: m.Distance})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) Debug(c *gin.Context) {
	raw, ok := s.readUpload(c, false)
	if !ok {
		return
	}
	topN, err := intQuery(c, "top_n", defaultTopN)
	if err != nil || topN <= 0 || topN > maxTopN {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("top_n must be between 1 and %d", maxTopN)})
		return
	}

	report, err := s.Pipeline.Debug(c.Request.Context(), raw, topN)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := DebugResponse{
		QueryHash:    report.QueryHash.String(),
		Matches:      make([]DebugMatchDTO, 0, len(report.Matches)),
		TotalChecked: report.TotalChecked,
	}
	for _, m := range report.Matches {
		resp.Matches = append(resp.Matches, DebugMatchDTO{
			ID:         m.Record.ID,
			Title:      m.Record.Title,
			StoredHash: m.Record.Fingerprint.String(),
			Distance:   m.Distance,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// readUpload reads the multipart file. It writes the error response itself
// and reports false when the request cannot proceed.
func (s *Server) readUpload(c *gin.Context, requireImageType bool) ([]byte, bool) {
	header, err := c.FormFile(formFileName)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d MB", s.cfg.MaxUploadMB)})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return nil, false
	}
	if requireImageType && !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be an image"})
		return nil, false
	}
	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	if maxBytes > 0 && header.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d MB", s.cfg.MaxUploadMB)})
		return nil, false
	}

	f, err := header.Open()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to open upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return nil, false
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return nil, false
	}
	if len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		return nil, false
	}
	return raw, true
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

type LookupResponse struct {
	Action  string   `json:"action"`
	EventID string   `json:"event_id"`
	Tier    string   `json:"tier,omitempty"`
	Event   EventDTO `json:"event"`
}

type EventDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Date        *string `json:"date"`
	Location    string  `json:"location"`
	Price       *string `json:"price"`
	ImageHash   string  `json:"image_hash,omitempty"`
	SourceURL   string  `json:"source_url,omitempty"`
	RawText     string  `json:"raw_text,omitempty"`
}

func newEventDTO(rec model.CatalogRecord) EventDTO {
	dto := EventDTO{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Location:    rec.Location,
		SourceURL:   rec.SourceURL,
		RawText:     rec.RawText,
	}
	if rec.Date != nil {
		d := rec.Date.UTC().Format(time.RFC3339)
		dto.Date = &d
	}
	if rec.Price != "" {
		p := rec.Price
		dto.Price = &p
	}
	if rec.Fingerprint != nil {
		dto.ImageHash = rec.Fingerprint.String()
	}
	return dto
}

type SimilarResponse struct {
	QueryMatches []SimilarDTO `json:"query_matches"`
}

type SimilarDTO struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Distance int    `json:"distance"`
}

type DebugResponse struct {
	QueryHash    string          `json:"query_hash"`
	Matches      []DebugMatchDTO `json:"matches"`
	TotalChecked int             `json:"total_checked"`
}

type DebugMatchDTO struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	StoredHash string `json:"stored_hash"`
	Distance   int    `json:"distance"`
}
