package dbx

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS users (id TEXT PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_id TEXT)`,
		`CREATE TABLE IF NOT EXISTS donations (id TEXT PRIMARY KEY, user_id TEXT)`,
		`INSERT INTO users VALUES ('u1')`,
		`INSERT INTO sessions VALUES ('s1', 'u1'), ('s2', 'u1')`,
		`INSERT INTO donations VALUES ('d1', 'u1')`,
	} {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

// deleteUser removes the user's rows from every table, failing after the
// statement at index failAt when failAt >= 0.
func deleteUser(failAt int) TxFunc {
	return func(ctx context.Context, tx DBTX) error {
		for i, q := range []string{
			`DELETE FROM sessions WHERE user_id = ?`,
			`DELETE FROM donations WHERE user_id = ?`,
			`DELETE FROM users WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, "u1"); err != nil {
				return err
			}
			if i == failAt {
				return errors.New("step failed")
			}
		}
		return nil
	}
}

func TestWithTx(t *testing.T) {
	tests := []struct {
		name      string
		failAt    int
		wantErr   bool
		wantCount int
	}{
		{name: "commits every statement", failAt: -1, wantCount: 0},
		{name: "rolls back after first statement", failAt: 0, wantErr: true, wantCount: 1},
		{name: "rolls back after last statement", failAt: 2, wantErr: true, wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupDB(t)

			err := WithTx(context.Background(), db, nil, deleteUser(tt.failAt))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, 2, count(t, db, "sessions"))
			} else {
				require.NoError(t, err)
				assert.Equal(t, 0, count(t, db, "sessions"))
			}
			assert.Equal(t, tt.wantCount, count(t, db, "users"))
			assert.Equal(t, tt.wantCount, count(t, db, "donations"))
		})
	}
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	require.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			_, err := tx.ExecContext(ctx, `DELETE FROM sessions`)
			require.NoError(t, err)
			panic("kaput")
		})
	})
	assert.Equal(t, 2, count(t, db, "sessions"))
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}

func TestSQLTransactor(t *testing.T) {
	db := setupDB(t)
	var tr Transactor = NewSQLTransactor(db, nil)

	err := tr.WithinTx(context.Background(), deleteUser(1))
	require.EqualError(t, err, "step failed")
	assert.Equal(t, 1, count(t, db, "users"))

	require.NoError(t, tr.WithinTx(context.Background(), deleteUser(-1)))
	assert.Equal(t, 0, count(t, db, "users"))
	assert.Equal(t, 0, count(t, db, "donations"))
}
