package store

import (
	"context"
	"database/sql"
	"errors"
)

// CursorSQLiteStore persists the last push id seen by the pushlog poller
// per project.
type CursorSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewCursorSQLiteStore(rdb, rwdb *sql.DB) *CursorSQLiteStore {
	return &CursorSQLiteStore{rdb, rwdb}
}

func (store *CursorSQLiteStore) ReadCursor(ctx context.Context, alias string) (int64, error) {
	var lastPushID int64
	query := "select last_push_id from poll_cursors where project_alias = $1"
	err := store.rdb.QueryRowContext(ctx, query, alias).Scan(&lastPushID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return lastPushID, nil
}

func (store *CursorSQLiteStore) UpsertCursor(
	ctx context.Context,
	alias string,
	lastPushID int64,
) error {
	query := `insert into poll_cursors (project_alias, last_push_id)
	values ($1, $2)
	on conflict (project_alias) do update set last_push_id = excluded.last_push_id`
	_, err := store.rwdb.ExecContext(ctx, query, alias, lastPushID)
	return err
}
