package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/bryanwahyu/persona-analyzer/internal/domain/history"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Migrate creates the analysis_history table if it does not exist
func (r *HistoryRepository) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS analysis_history (
  id VARCHAR(36) NOT NULL PRIMARY KEY,
  type VARCHAR(32) NOT NULL,
  user_name VARCHAR(255) NOT NULL,
  result VARCHAR(64) NOT NULL,
  confidence DOUBLE NOT NULL,
  text_body MEDIUMTEXT NOT NULL,
  created_at DATETIME(6) NOT NULL,
  INDEX idx_history_user_created (user_name, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts one history record
func (r *HistoryRepository) Save(ctx context.Context, h *history.Record) error {
	const q = `
INSERT INTO analysis_history
  (id, type, user_name, result, confidence, text_body, created_at)
VALUES (?,?,?,?,?,?,?);
`
	user := h.User
	if user == "" {
		user = history.AnonymousUser
	}
	createdAt := h.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q, h.ID, h.Type, user, stringOrDash(h.Result), h.Confidence, h.Text, createdAt)
	return err
}

// ListByUser returns a page of records for user ordered by created_at desc
func (r *HistoryRepository) ListByUser(ctx context.Context, user string, page, pageSize int) ([]*history.Record, error) {
	page, pageSize = history.NormalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	const q = `
SELECT id, type, user_name, result, confidence, text_body, created_at
FROM analysis_history
WHERE user_name=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, user, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*history.Record
	for rows.Next() {
		var h history.Record
		if err := rows.Scan(&h.ID, &h.Type, &h.User, &h.Result, &h.Confidence, &h.Text, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.CreatedAt = h.CreatedAt.UTC()
		out = append(out, &h)
	}
	return out, rows.Err()
}
