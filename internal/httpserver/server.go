package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	cfgpkg "github.com/taoyao-code/msp-gateway/internal/config"
	"github.com/taoyao-code/msp-gateway/internal/state"
)

// Server HTTP 服务封装：健康检查、指标与飞控状态快照查询
type Server struct {
	srv *http.Server
}

// New 创建并配置 Gin + HTTP Server。
// st 为共享飞控状态；readyFn 为就绪探针（nil 视为始终就绪）。
func New(cfg cfgpkg.HTTPConfig, metricsPath string, metricsHandler http.Handler, st *state.FlightState, readyFn func() bool) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		if readyFn == nil || readyFn() {
			c.String(http.StatusOK, "ready")
			return
		}
		c.String(http.StatusServiceUnavailable, "not-ready")
	})
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if metricsHandler != nil {
		r.GET(metricsPath, gin.WrapH(metricsHandler))
	}
	if st != nil {
		r.GET("/api/v1/state", func(c *gin.Context) {
			c.JSON(http.StatusOK, st.Snapshot())
		})
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Server{srv: srv}
}

// Start 启动 HTTP 服务（阻塞）
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
