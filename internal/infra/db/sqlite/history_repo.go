package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bryanwahyu/persona-analyzer/internal/domain/history"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Migrate creates the table. created_at is unix nanoseconds so ordering is numeric.
func (r *HistoryRepository) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS analysis_history (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  user_name TEXT NOT NULL,
  result TEXT NOT NULL,
  confidence REAL NOT NULL,
  text_body TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_user_created ON analysis_history (user_name, created_at);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

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
	result := h.Result
	if strings.TrimSpace(result) == "" {
		result = "-"
	}
	createdAt := h.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, h.ID, h.Type, user, result, h.Confidence, h.Text, createdAt.UnixNano())
	return err
}

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
		var created int64
		if err := rows.Scan(&h.ID, &h.Type, &h.User, &h.Result, &h.Confidence, &h.Text, &created); err != nil {
			return nil, err
		}
		h.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, &h)
	}
	return out, rows.Err()
}
