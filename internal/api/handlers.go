// internal/api/handlers.go
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	commonerrors "firepm-api/internal/common/errors"
	"firepm-api/internal/common/validation"
	"firepm-api/internal/models"
)

type updateStatusRequest struct {
	Status       int    `json:"status"`
	ViewerRole   string `json:"viewerRole"`
	SkipTracking bool   `json:"skipTracking"`
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.responder.Respond(c, commonerrors.NewValidationFailedError("project id must be an integer"))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.responder.Respond(c, commonerrors.NewValidationFailedError("unreadable request body"))
		return
	}

	if err := validation.ValidateUpdateStatus(body); err != nil {
		s.responder.Respond(c, commonerrors.NewValidationFailedError(err.Error()))
		return
	}

	var req updateStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.responder.Respond(c, commonerrors.NewValidationFailedError(err.Error()))
		return
	}

	role, err := models.ParseRole(req.ViewerRole)
	if err != nil {
		s.responder.Respond(c, commonerrors.NewInvalidRoleError(req.ViewerRole))
		return
	}

	result, err := s.svc.UpdateStatus(c.Request.Context(), projectID, req.Status, role, req.SkipTracking)
	if err != nil {
		s.responder.Respond(c, err)
		return
	}

	// Partial notification failure is still a committed status change.
	httpStatus := http.StatusOK
	if len(result.Dispatch.Failed) > 0 {
		httpStatus = http.StatusMultiStatus
	}
	c.JSON(httpStatus, result)
}

func (s *Server) handleGetStatusData(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.responder.Respond(c, commonerrors.NewValidationFailedError("project id must be an integer"))
		return
	}

	targetStatus, err := strconv.Atoi(c.Query("status"))
	if err != nil {
		s.responder.Respond(c, commonerrors.NewValidationFailedError("status query parameter must be an integer"))
		return
	}

	role, err := models.ParseRole(c.DefaultQuery("viewerRole", "client"))
	if err != nil {
		s.responder.Respond(c, commonerrors.NewInvalidRoleError(c.Query("viewerRole")))
		return
	}

	view, err := s.svc.GetStatusData(c.Request.Context(), projectID, targetStatus, role)
	if err != nil {
		s.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleNotificationHistory(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.responder.Respond(c, commonerrors.NewValidationFailedError("project id must be an integer"))
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}

	records, err := s.history.RecentForProject(c.Request.Context(), projectID, limit)
	if err != nil {
		s.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": records})
}

func (s *Server) handleGetCatalogEntry(c *gin.Context) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil {
		s.responder.Respond(c, commonerrors.NewValidationFailedError("status code must be an integer"))
		return
	}

	entry, err := s.catalog.GetByCode(c.Request.Context(), code)
	if err != nil {
		s.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.db != nil {
		if err := s.db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
