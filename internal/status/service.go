// internal/status/service.go
package status

import (
	"context"
	"time"

	"firepm-api/internal/common/logger"
	"firepm-api/internal/common/metrics"
	"firepm-api/internal/common/observability"
	"firepm-api/internal/models"
)

// StatusWriter is the slice of the project store the service writes through.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id int64, status int) error
}

// UpdateResult distinguishes the persistence step from the notification
// step: "status updated, but N of M notifications failed" is a visible
// outcome, not an opaque flag.
type UpdateResult struct {
	StatusUpdated bool                   `json:"statusUpdated"`
	StatusCode    int                    `json:"statusCode"`
	StatusName    string                 `json:"statusName"`
	Dispatch      *models.DispatchResult `json:"dispatch"`
}

// StatusDataView is the aggregated, role-processed context returned by
// the preview endpoint.
type StatusDataView struct {
	Project    *models.Project            `json:"project"`
	Author     *models.Profile            `json:"author"`
	Entry      *models.StatusCatalogEntry `json:"statusEntry"`
	StatusName string                     `json:"statusName"`
	Subject    string                     `json:"subject"`
	Message    string                     `json:"message"`
	Recipients []string                   `json:"recipients"`
}

// Service runs the aggregate -> persist -> process -> dispatch sequence
// for one status change.
type Service struct {
	aggregator *Aggregator
	processor  *Processor
	dispatcher *Dispatcher
	writer     StatusWriter
	obs        *observability.Observability
	logger     logger.Logger
}

func NewService(agg *Aggregator, proc *Processor, disp *Dispatcher, writer StatusWriter,
	obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		aggregator: agg,
		processor:  proc,
		dispatcher: disp,
		writer:     writer,
		obs:        obs,
		logger:     log,
	}
}

// UpdateStatus performs one status change. Aggregation failures abort
// the whole operation before any write; dispatch failures never roll the
// committed status write back.
func (s *Service) UpdateStatus(ctx context.Context, projectID int64, targetStatus int,
	viewerRole models.Role, skipTracking bool) (*UpdateResult, error) {
	start := time.Now()

	pctx, err := s.aggregator.Aggregate(ctx, projectID, targetStatus)
	if err != nil {
		metrics.StatusUpdatesTotal.WithLabelValues("aggregation_failed").Inc()
		return nil, err
	}

	// The status write commits before any notification goes out; the two
	// steps are deliberately decoupled.
	if err := s.writer.UpdateStatus(ctx, projectID, targetStatus); err != nil {
		metrics.StatusUpdatesTotal.WithLabelValues("write_failed").Inc()
		return nil, err
	}

	out, err := s.processor.Process(ctx, pctx, viewerRole)
	if err != nil {
		// The write already happened. Report it as updated with nothing
		// dispatched rather than pretending the whole operation failed.
		s.logger.Error("status persisted but processing failed", map[string]interface{}{
			"projectId":  projectID,
			"statusCode": targetStatus,
			"error":      err.Error(),
		})
		metrics.StatusUpdatesTotal.WithLabelValues("process_failed").Inc()
		return &UpdateResult{
			StatusUpdated: true,
			StatusCode:    targetStatus,
			StatusName:    pctx.StatusName,
			Dispatch:      &models.DispatchResult{},
		}, nil
	}

	jobs := buildJobs(pctx, out, skipTracking)
	dispatch := s.dispatcher.Dispatch(ctx, projectID, targetStatus, jobs)

	result := "ok"
	if len(dispatch.Failed) > 0 {
		result = "partial"
	}
	metrics.StatusUpdatesTotal.WithLabelValues(result).Inc()
	if s.obs != nil {
		s.obs.RecordStatusUpdate(ctx, result)
		s.obs.RecordUpdateDuration(ctx, time.Since(start), result)
	}

	s.logger.Info("status updated", map[string]interface{}{
		"projectId":  projectID,
		"statusCode": targetStatus,
		"statusName": out.StatusName,
		"recipients": len(jobs),
		"sent":       dispatch.Sent,
		"failed":     len(dispatch.Failed),
	})

	return &UpdateResult{
		StatusUpdated: true,
		StatusCode:    targetStatus,
		StatusName:    out.StatusName,
		Dispatch:      dispatch,
	}, nil
}

// GetStatusData returns the aggregated context and the processed message
// preview without persisting or dispatching anything.
func (s *Service) GetStatusData(ctx context.Context, projectID int64, targetStatus int,
	viewerRole models.Role) (*StatusDataView, error) {
	pctx, err := s.aggregator.Aggregate(ctx, projectID, targetStatus)
	if err != nil {
		return nil, err
	}

	out, err := s.processor.Process(ctx, pctx, viewerRole)
	if err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(out.Recipients))
	for _, r := range out.Recipients {
		emails = append(emails, r.Email)
	}

	return &StatusDataView{
		Project:    pctx.Project,
		Author:     pctx.AuthorProfile,
		Entry:      pctx.StatusEntry,
		StatusName: out.StatusName,
		Subject:    out.Subject,
		Message:    out.Message,
		Recipients: emails,
	}, nil
}

// buildJobs turns the processed output into one job per recipient.
func buildJobs(pctx *ProjectContext, out *ProcessOutput, skipTracking bool) []models.NotificationJob {
	jobs := make([]models.NotificationJob, 0, len(out.Recipients))
	for _, r := range out.Recipients {
		jobs = append(jobs, models.NotificationJob{
			RecipientEmail: r.Email,
			RecipientPhone: r.Phone,
			Subject:        out.Subject,
			BodyHTML:       out.Message,
			ButtonText:     out.ButtonText,
			ButtonLink:     out.ButtonLink,
			SkipTracking:   skipTracking,
			Urgent:         pctx.StatusEntry.Urgent,
		})
	}
	return jobs
}
