// internal/store/catalog.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	commonerrors "firepm-api/internal/common/errors"
	"firepm-api/internal/common/logger"
	"firepm-api/internal/models"
)

// StatusCatalogStore reads status catalog rows through a Redis
// read-through cache. Catalog rows are immutable once a project
// references the code, so a short TTL is safe; cache trouble degrades to
// a database read, never to a failed lookup.
type StatusCatalogStore struct {
	db     *sql.DB
	cache  *redis.Client
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

func NewStatusCatalogStore(db *sql.DB, cache *redis.Client, ttl time.Duration, prefix string, log logger.Logger) *StatusCatalogStore {
	return &StatusCatalogStore{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		prefix: prefix,
		logger: log,
	}
}

func (s *StatusCatalogStore) cacheKey(code int) string {
	return fmt.Sprintf("%s:%d", s.prefix, code)
}

// GetByCode fetches the catalog entry for an exact status code.
func (s *StatusCatalogStore) GetByCode(ctx context.Context, code int) (*models.StatusCatalogEntry, error) {
	if entry := s.fromCache(ctx, code); entry != nil {
		return entry, nil
	}

	entry, err := s.fromDB(ctx, code)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, entry)
	return entry, nil
}

func (s *StatusCatalogStore) fromCache(ctx context.Context, code int) *models.StatusCatalogEntry {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, s.cacheKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		s.logger.Warn("status catalog cache read failed", map[string]interface{}{
			"statusCode": code,
			"error":      err.Error(),
		})
		return nil
	}

	var entry models.StatusCatalogEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		s.logger.Warn("status catalog cache entry corrupt", map[string]interface{}{
			"statusCode": code,
			"error":      err.Error(),
		})
		return nil
	}
	return &entry
}

func (s *StatusCatalogStore) toCache(ctx context.Context, entry *models.StatusCatalogEntry) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(entry.StatusCode), raw, s.ttl).Err(); err != nil {
		s.logger.Warn("status catalog cache write failed", map[string]interface{}{
			"statusCode": entry.StatusCode,
			"error":      err.Error(),
		})
	}
}

func (s *StatusCatalogStore) fromDB(ctx context.Context, code int) (*models.StatusCatalogEntry, error) {
	query := `SELECT status_code, admin_status_name, client_status_name,
		admin_email_subject, admin_email_content, client_email_subject, client_email_content,
		notify_roles, COALESCE(button_text, ''), COALESCE(button_link, ''), COALESCE(est_time, ''), urgent
		FROM status_catalog WHERE status_code = $1`

	var entry models.StatusCatalogEntry
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&entry.StatusCode, &entry.AdminStatusName, &entry.ClientStatusName,
		&entry.AdminEmailSubject, &entry.AdminEmailContent,
		&entry.ClientEmailSubject, &entry.ClientEmailContent,
		pq.Array(&entry.NotifyRoles),
		&entry.ButtonText, &entry.ButtonLink, &entry.EstTime, &entry.Urgent,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commonerrors.NewStatusNotFoundError(code)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("status_catalog", err)
	}
	return &entry, nil
}
