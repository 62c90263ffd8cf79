// internal/notify/audit.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"firepm-api/internal/common/logger"
	"firepm-api/internal/models"
)

// RecordInserter is the slice of the notification log store the auditor
// writes through.
type RecordInserter interface {
	Insert(ctx context.Context, rec *models.NotificationRecord) error
}

// Auditor writes each delivery attempt to the notification log table and
// mirrors it into the Elasticsearch audit index so operators can search
// delivery history. Audit trouble is logged, never propagated: losing an
// audit row must not fail a dispatch that already happened.
type Auditor struct {
	store  RecordInserter
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewAuditor(store RecordInserter, es *elasticsearch.Client, index string, log logger.Logger) *Auditor {
	return &Auditor{
		store:  store,
		es:     es,
		index:  index,
		logger: log,
	}
}

func (a *Auditor) Record(ctx context.Context, rec *models.NotificationRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	if a.store != nil {
		if err := a.store.Insert(ctx, rec); err != nil {
			a.logger.Error("notification log insert failed", map[string]interface{}{
				"recordId":  rec.ID,
				"projectId": rec.ProjectID,
				"error":     err.Error(),
			})
		}
	}

	a.indexRecord(ctx, rec)
}

func (a *Auditor) indexRecord(ctx context.Context, rec *models.NotificationRecord) {
	if a.es == nil {
		return
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return
	}

	res, err := a.es.Index(
		a.index,
		bytes.NewReader(body),
		a.es.Index.WithDocumentID(rec.ID),
		a.es.Index.WithContext(ctx),
	)
	if err != nil {
		a.logger.Warn("audit index write failed", map[string]interface{}{
			"recordId": rec.ID,
			"error":    err.Error(),
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		a.logger.Warn("audit index write rejected", map[string]interface{}{
			"recordId": rec.ID,
			"status":   res.Status(),
		})
	}
}
