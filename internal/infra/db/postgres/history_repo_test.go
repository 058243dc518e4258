package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/persona-analyzer/internal/domain/history"
	"github.com/bryanwahyu/persona-analyzer/internal/infra/db/dbtest"
)

var historyColumns = []string{"id", "type", "user_name", "result", "confidence", "text_body", "created_at"}

func TestMigrate(t *testing.T) {
	rec := &dbtest.Recorder{}
	repo := NewHistoryRepository(dbtest.Open(t, rec))

	require.NoError(t, repo.Migrate(context.Background()))

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "CREATE TABLE IF NOT EXISTS analysis_history")
	assert.Contains(t, calls[0].Query, "CREATE INDEX IF NOT EXISTS idx_history_user_created ON analysis_history (user_name, created_at DESC)")
	assert.Empty(t, calls[0].Args)

	// both statements go out in one Exec
	stmts := strings.Split(strings.TrimSpace(calls[0].Query), ";")
	assert.Len(t, stmts, 3)
	assert.Empty(t, strings.TrimSpace(stmts[2]))
	assert.Contains(t, stmts[0], "id UUID PRIMARY KEY")
	assert.Contains(t, stmts[0], "created_at TIMESTAMPTZ NOT NULL")
}

func TestSave(t *testing.T) {
	rec := &dbtest.Recorder{}
	repo := NewHistoryRepository(dbtest.Open(t, rec))
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(context.Background(), &history.Record{
		ID: "id-1", Type: history.TypeDeception, User: "budi",
		Result: "Truthful", Confidence: 71.5, Text: "  as sent\r\n", CreatedAt: at,
	}))

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "(id, type, user_name, result, confidence, text_body, created_at)")
	assert.Contains(t, calls[0].Query, "VALUES ($1,$2,$3,$4,$5,$6,$7)")
	assert.Equal(t, []any{"id-1", "Deception", "budi", "Truthful", 71.5, "  as sent\r\n", at}, calls[0].Args)
}

func TestSave_Defaults(t *testing.T) {
	rec := &dbtest.Recorder{}
	repo := NewHistoryRepository(dbtest.Open(t, rec))

	before := time.Now().UTC()
	require.NoError(t, repo.Save(context.Background(), &history.Record{ID: "id-2", Type: history.TypePersonality, Text: "x"}))

	args := rec.Calls()[0].Args
	require.Len(t, args, 7)
	assert.Equal(t, history.AnonymousUser, args[2])
	assert.Equal(t, "-", args[3])
	createdAt, ok := args[6].(time.Time)
	require.True(t, ok)
	assert.False(t, createdAt.Before(before))
}

func TestListByUser(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	at := time.Date(2024, 3, 1, 19, 0, 0, 0, jakarta)
	rec := &dbtest.Recorder{
		Columns: historyColumns,
		Rows: [][]driver.Value{
			{"id-1", "Deception", "budi", "Deceptive", 88.0, "hello", at},
		},
	}
	repo := NewHistoryRepository(dbtest.Open(t, rec))

	recs, err := repo.ListByUser(context.Background(), "budi", 3, 5)
	require.NoError(t, err)

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "WHERE user_name=$1")
	assert.Contains(t, calls[0].Query, "ORDER BY created_at DESC, id DESC")
	assert.Contains(t, calls[0].Query, "LIMIT $2 OFFSET $3")
	assert.Equal(t, []any{"budi", int64(5), int64(10)}, calls[0].Args)

	require.Len(t, recs, 1)
	assert.Equal(t, &history.Record{
		ID: "id-1", Type: "Deception", User: "budi", Result: "Deceptive",
		Confidence: 88, Text: "hello", CreatedAt: at.UTC(),
	}, recs[0])
	assert.Equal(t, time.UTC, recs[0].CreatedAt.Location())
}

func TestListByUser_NormalizesPage(t *testing.T) {
	rec := &dbtest.Recorder{Columns: historyColumns}
	repo := NewHistoryRepository(dbtest.Open(t, rec))

	recs, err := repo.ListByUser(context.Background(), "budi", 0, 500)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, []any{"budi", int64(100), int64(0)}, rec.Calls()[0].Args)
}

func TestRepository_Errors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := NewHistoryRepository(dbtest.Open(t, &dbtest.Recorder{Err: boom}))
	ctx := context.Background()

	assert.ErrorIs(t, repo.Migrate(ctx), boom)
	assert.ErrorIs(t, repo.Save(ctx, &history.Record{ID: "x"}), boom)
	_, err := repo.ListByUser(ctx, "budi", 1, 10)
	assert.ErrorIs(t, err, boom)
}
