// internal/api/server.go
package api

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	commonerrors "firepm-api/internal/common/errors"
	"firepm-api/internal/common/logger"
	"firepm-api/internal/models"
	"firepm-api/internal/status"
)

// StatusService is the pipeline surface the handlers call.
type StatusService interface {
	UpdateStatus(ctx context.Context, projectID int64, targetStatus int, viewerRole models.Role, skipTracking bool) (*status.UpdateResult, error)
	GetStatusData(ctx context.Context, projectID int64, targetStatus int, viewerRole models.Role) (*status.StatusDataView, error)
}

// NotificationHistory is the audit-log surface the handlers read.
type NotificationHistory interface {
	RecentForProject(ctx context.Context, projectID int64, limit int) ([]*models.NotificationRecord, error)
}

// Pinger reports backend liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API server.
type Server struct {
	router    *gin.Engine
	svc       StatusService
	catalog   status.CatalogReader
	history   NotificationHistory
	db        Pinger
	responder *commonerrors.Responder
	logger    logger.Logger
}

// NewServer wires the routes. allowedOrigins configures CORS for the
// browser clients; empty means same-origin only.
func NewServer(svc StatusService, catalog status.CatalogReader, history NotificationHistory,
	db Pinger, log logger.Logger, allowedOrigins []string) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	if len(allowedOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = allowedOrigins
		router.Use(cors.New(corsCfg))
	}

	s := &Server{
		router:    router,
		svc:       svc,
		catalog:   catalog,
		history:   history,
		db:        db,
		responder: commonerrors.NewResponder(log),
		logger:    log,
	}

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/projects/:id/status", s.handleUpdateStatus)
		v1.GET("/projects/:id/status-data", s.handleGetStatusData)
		v1.GET("/projects/:id/notifications", s.handleNotificationHistory)
		v1.GET("/status-catalog/:code", s.handleGetCatalogEntry)
	}

	return s
}

// Run starts the HTTP server.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the engine for httptest.
func (s *Server) Router() *gin.Engine {
	return s.router
}
