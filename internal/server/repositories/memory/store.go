// Package memory provides an in-process RepositoryManager and Transactor.
// It backs development runs ("-d memory") and service tests. Transactions
// are serialized and restore a snapshot of all tables when they fail.
package memory

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"

	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/donations"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/users"
)

var errNoSQL = errors.New("memory store: SQL is not supported")

type txKey struct{}

// Store holds every table. The zero value is not usable; call NewStore.
type Store struct {
	// txMu serializes units of work, whether a whole transaction or a
	// single statement issued outside one.
	txMu sync.Mutex

	users     map[string]*models.User
	sessions  map[string]*models.Session
	donations map[string]*models.Donation
	// seq orders donations created within the same clock tick.
	seq    int64
	donSeq map[string]int64
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]*models.User),
		sessions:  make(map[string]*models.Session),
		donations: make(map[string]*models.Donation),
		donSeq:    make(map[string]int64),
	}
}

// unit runs fn holding the store lock unless ctx already belongs to a
// transaction of this store, which holds it.
func (s *Store) unit(ctx context.Context, fn func() error) error {
	if ctx.Value(txKey{}) == s {
		return fn()
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn()
}

type snapshot struct {
	users     map[string]*models.User
	sessions  map[string]*models.Session
	donations map[string]*models.Donation
	seq       int64
	donSeq    map[string]int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users:     make(map[string]*models.User, len(s.users)),
		sessions:  make(map[string]*models.Session, len(s.sessions)),
		donations: make(map[string]*models.Donation, len(s.donations)),
		seq:       s.seq,
		donSeq:    make(map[string]int64, len(s.donSeq)),
	}
	for k, v := range s.users {
		snap.users[k] = copyUser(v)
	}
	for k, v := range s.sessions {
		c := *v
		snap.sessions[k] = &c
	}
	for k, v := range s.donations {
		c := *v
		snap.donations[k] = &c
	}
	for k, v := range s.donSeq {
		snap.donSeq[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.sessions = snap.sessions
	s.donations = snap.donations
	s.seq = snap.seq
	s.donSeq = snap.donSeq
}

// WithinTx runs fn atomically: on error or panic every change made through
// repositories of this store is undone.
func (s *Store) WithinTx(ctx context.Context, fn dbx.TxFunc) (err error) {
	if ctx.Value(txKey{}) == s {
		return fn(ctx, handle{})
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s), handle{})
}

// Manager is a RepositoryManager over a Store. The DBTX arguments are
// ignored; transactional scope travels in the context instead.
type Manager struct {
	store *Store
}

func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository {
	return &UserRepository{s: m.store}
}

func (m *Manager) Sessions(dbx.DBTX) sessions.Repository {
	return &SessionRepository{s: m.store}
}

func (m *Manager) Donations(dbx.DBTX) donations.Repository {
	return &DonationRepository{s: m.store}
}

// handle satisfies dbx.DBTX for code that passes the transaction handle
// around; memory repositories never issue SQL through it.
type handle struct{}

func (handle) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, errNoSQL
}

func (handle) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errNoSQL
}

// sql.Row has no exported constructor, so rows come from a pool whose
// every connection attempt fails with errNoSQL. Scan reports it.
func (handle) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return noSQLPool.QueryRowContext(ctx, query, args...)
}

var noSQLPool = sql.OpenDB(noSQLConnector{})

type noSQLConnector struct{}

func (noSQLConnector) Connect(context.Context) (driver.Conn, error) { return nil, errNoSQL }
func (noSQLConnector) Driver() driver.Driver { return noSQLDriver{} }

type noSQLDriver struct{}

func (noSQLDriver) Open(string) (driver.Conn, error) { return nil, errNoSQL }

// Handle returns a DBTX placeholder for callers that want a non-nil pool
// handle when running on the memory store.
func Handle() dbx.DBTX {
	return handle{}
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.VerificationCode = copyPtr(u.VerificationCode)
	c.VerificationCodeExpires = copyPtr(u.VerificationCodeExpires)
	c.ResetCode = copyPtr(u.ResetCode)
	c.ResetCodeExpires = copyPtr(u.ResetCodeExpires)
	c.UnsubscribeToken = copyPtr(u.UnsubscribeToken)
	return &c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
