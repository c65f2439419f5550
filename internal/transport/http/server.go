// Package httpapi 提供报表 HTTP 服务：最近一次周期报告、权益曲线与周期日志。
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"folio/internal/logger"
	"folio/internal/report"
	"folio/internal/store/cyclelog"

	"github.com/gin-gonic/gin"
)

// Server 在循环模式下常驻，向前端暴露只读接口。
type Server struct {
	addr   string
	router *gin.Engine
	cycles *cyclelog.Store

	mu     sync.RWMutex
	latest *report.Report
}

// NewServer 构建报表服务。cycles 允许为 nil（此时 /api/cycles 返回 404）。
func NewServer(addr string, cycles *cyclelog.Store) *Server {
	if addr == "" {
		addr = ":9985"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{addr: addr, router: router, cycles: cycles}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := router.Group("/api")
	api.GET("/report", s.handleReport)
	api.GET("/history", s.handleHistory)
	api.GET("/positions", s.handlePositions)
	api.GET("/trades", s.handleTrades)
	api.GET("/cycles", s.handleCycles)
	router.GET("/chart", s.handleChart)

	return s
}

// SetReport 发布最新周期报告。
func (s *Server) SetReport(rep report.Report) {
	s.mu.Lock()
	s.latest = &rep
	s.mu.Unlock()
}

func (s *Server) snapshot() *report.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Run 启动 HTTP 服务并阻塞到 ctx 结束。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("report http server listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleReport(c *gin.Context) {
	rep := s.snapshot()
	if rep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cycle has completed yet"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleHistory(c *gin.Context) {
	rep := s.snapshot()
	if rep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cycle has completed yet"})
		return
	}
	c.JSON(http.StatusOK, rep.History)
}

func (s *Server) handlePositions(c *gin.Context) {
	rep := s.snapshot()
	if rep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cycle has completed yet"})
		return
	}
	c.JSON(http.StatusOK, rep.Positions)
}

func (s *Server) handleTrades(c *gin.Context) {
	rep := s.snapshot()
	if rep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cycle has completed yet"})
		return
	}
	c.JSON(http.StatusOK, rep.Trades)
}

func (s *Server) handleCycles(c *gin.Context) {
	if s.cycles == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "cycle log disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	records, err := s.cycles.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("http %s %s status=%d cost=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
