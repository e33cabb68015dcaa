package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"rosterbot/internal/domain"
	"rosterbot/internal/export"
	"rosterbot/internal/fetch"
)

// Server serves the current snapshot as JSON and exports.
type Server struct {
	router    *gin.Engine
	refresher *fetch.Refresher
	loc       *time.Location
}

func New(refresher *fetch.Refresher, loc *time.Location, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		router:    gin.New(),
		refresher: refresher,
		loc:       loc,
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	s.RegisterRoutes(api)
}

func (s *Server) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/snapshot", s.getSnapshot)
	router.GET("/regions", s.listRegions)
	router.GET("/submitted", s.listSubmitted)
	router.GET("/unsubmitted", s.listUnsubmitted)
	router.GET("/anomalies", s.listAnomalies)
	router.POST("/refresh", s.refresh)
	router.GET("/export/:kind", s.export)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Printf("HTTP API shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) getSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.refresher.Current())
}

func (s *Server) listRegions(c *gin.Context) {
	snap := s.refresher.Current()
	c.JSON(http.StatusOK, gin.H{"regions": snap.RegionStats})
}

func (s *Server) listSubmitted(c *gin.Context) {
	snap := s.refresher.Current()
	records := domain.FilterRecords(snap.Records, c.Query("region"), c.Query("q"))
	if records == nil {
		records = []domain.SurveyRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"items": records, "total": len(records)})
}

func (s *Server) listUnsubmitted(c *gin.Context) {
	snap := s.refresher.Current()
	orgs := domain.FilterOrganizations(snap.Unsubmitted, c.Query("region"), c.Query("q"))
	if orgs == nil {
		orgs = []domain.Organization{}
	}
	c.JSON(http.StatusOK, gin.H{"items": orgs, "total": len(orgs)})
}

func (s *Server) listAnomalies(c *gin.Context) {
	snap := s.refresher.Current()
	items := snap.Anomalies()
	if items == nil {
		items = []domain.SurveyRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (s *Server) refresh(c *gin.Context) {
	res, err := s.refresher.Refresh(c.Request.Context())
	if errors.Is(err, fetch.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":  res,
		"summary": fetch.FormatRefreshSummary(res),
	})
}

func (s *Server) export(c *gin.Context) {
	kind, err := export.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap := s.refresher.Current()
	filename := kind.FileName(time.Now().In(s.loc))

	c.Header("Content-Disposition", contentDisposition(kind, filename))
	c.Header("Content-Type", kind.ContentType())
	if err := export.Write(c.Writer, kind, snap, c.Query("region"), c.Query("q")); err != nil {
		log.Printf("export kind=%s error: %v", kind, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
	}
}

// contentDisposition carries an ASCII fallback name for old clients and
// the Korean name in filename*.
func contentDisposition(kind export.Kind, filename string) string {
	ext := ".csv"
	if kind == export.KindWorkbook {
		ext = ".xlsx"
	}
	fallback := "rosterbot-" + string(kind) + ext
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", fallback, url.PathEscape(filename))
}
