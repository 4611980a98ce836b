package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lansepyy/article-admin/internal/api"
	"github.com/lansepyy/article-admin/internal/core"
	"github.com/lansepyy/article-admin/internal/logging"
	"github.com/sirupsen/logrus"
)

// MaxPerPage bounds per_page on search requests.
const MaxPerPage = 100

// Response codes carried in the envelope.
const (
	CodeOK         = 0
	CodeBadRequest = 400
	CodeInternal   = 500
)

// response is the envelope every handler writes.
type response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Server serves the catalog API over HTTP.
type Server struct {
	store  *Store
	engine *gin.Engine
	log    *logrus.Entry
}

// NewServer builds the router over store.
func NewServer(store *Store) *Server {
	s := &Server{
		store:  store,
		engine: gin.New(),
		log:    logging.WithComponent("catalog"),
	}
	s.engine.Use(gin.Recovery(), requestID(), s.accessLog())

	articles := s.engine.Group("/articles")
	{
		articles.POST("/search", s.search)
		articles.GET("/categories", s.categories)
	}
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("catalog listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("catalog shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) search(c *gin.Context) {
	var req api.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{Code: CodeBadRequest, Message: "invalid search body: " + err.Error()})
		return
	}
	if req.Page < 1 || req.PerPage < 1 || req.PerPage > MaxPerPage {
		c.JSON(http.StatusBadRequest, response{
			Code:    CodeBadRequest,
			Message: fmt.Sprintf("page must be >= 1 and per_page in 1..%d", MaxPerPage),
		})
		return
	}
	for _, d := range []string{req.PublishDateRange.From, req.PublishDateRange.To} {
		if d == "" {
			continue
		}
		if _, err := core.ParseDate(d, time.UTC); err != nil {
			c.JSON(http.StatusBadRequest, response{Code: CodeBadRequest, Message: err.Error()})
			return
		}
	}

	result, err := s.store.Search(c.Request.Context(), req)
	if err != nil {
		s.log.WithError(err).Error("search failed")
		c.JSON(http.StatusInternalServerError, response{Code: CodeInternal, Message: "search failed"})
		return
	}
	c.JSON(http.StatusOK, response{Code: CodeOK, Message: "ok", Data: result})
}

func (s *Server) categories(c *gin.Context) {
	tree, err := s.store.Categories(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("category listing failed")
		c.JSON(http.StatusInternalServerError, response{Code: CodeInternal, Message: "category listing failed"})
		return
	}
	c.JSON(http.StatusOK, response{Code: CodeOK, Message: "ok", Data: tree})
}

// requestID echoes the caller's request id or assigns one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(api.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(api.RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"request_id": c.GetString("request_id"),
		}).Debug("request")
	}
}
