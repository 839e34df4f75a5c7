package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/accounts/internal/client/migrations"
	"github.com/dmitrijs2005/accounts/internal/client/repositories/state"
	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/filex"

	_ "modernc.org/sqlite"
)

const (
	keyEmail = "session.email"
	keyToken = "session.token"
)

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// OpenState opens the SQLite state file at path, creating its directory
// when needed, and migrates it.
func OpenState(ctx context.Context, path string) (*sql.DB, error) {
	path, err := filex.EnsureParentDir(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// StoredSession is the login remembered between CLI runs.
type StoredSession struct {
	Email string
	Token string
}

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Load returns ErrNotLoggedIn when no session has been saved.
func (s *SessionStore) Load(ctx context.Context) (*StoredSession, error) {
	repo := state.NewSQLiteRepository(s.db)

	token, err := repo.Get(ctx, keyToken)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}

	email, err := repo.Get(ctx, keyEmail)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	return &StoredSession{Email: email, Token: token}, nil
}

func (s *SessionStore) Save(ctx context.Context, sess StoredSession) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := state.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keyEmail, sess.Email); err != nil {
			return err
		}
		return repo.Set(ctx, keyToken, sess.Token)
	})
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := state.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, keyToken); err != nil {
			return err
		}
		return repo.Delete(ctx, keyEmail)
	})
}
