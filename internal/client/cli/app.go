package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"

	"github.com/dmitrijs2005/accounts/internal/client/client"
	"github.com/dmitrijs2005/accounts/internal/client/config"
)

// accountsAPI is the part of client.HTTPClient the commands use.
type accountsAPI interface {
	SetToken(token string)
	Register(ctx context.Context, email, password string) (*client.RegisterResult, error)
	VerifyEmail(ctx context.Context, email, code string) (*client.Session, error)
	Login(ctx context.Context, email, password string) (*client.Session, error)
	Me(ctx context.Context) (*client.User, error)
	RequestReset(ctx context.Context, email string) (string, error)
	VerifyResetCode(ctx context.Context, email, code string) (*client.ResetCodeCheck, error)
	ResetPassword(ctx context.Context, email, code, password string) (string, error)
	DeleteAccount(ctx context.Context) (string, error)
	Donate(ctx context.Context, amount float64) (*client.Donation, error)
	Donations(ctx context.Context) (*client.DonationSummary, error)
	Subscribe(ctx context.Context, email string) (string, error)
	Unsubscribe(ctx context.Context, token, email string) (string, error)
	SubscriptionStatus(ctx context.Context, email string) (*client.SubscriptionStatus, error)
	Ping(ctx context.Context) error
}

type sessionStore interface {
	Load(ctx context.Context) (*client.StoredSession, error)
	Save(ctx context.Context, s client.StoredSession) error
	Clear(ctx context.Context) error
}

type App struct {
	api      accountsAPI
	sessions sessionStore
	reader   *bufio.Reader
	out      io.Writer
	email    string
	db       *sql.DB
}

// NewApp opens the state file named in c and restores the saved session,
// if any.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.OpenState(ctx, c.StateFile)
	if err != nil {
		return nil, err
	}

	a := newApp(client.NewHTTPClient(c.ServerURL, c.Timeout), client.NewSessionStore(db), os.Stdin, os.Stdout)
	a.db = db

	if err := a.restoreSession(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func newApp(api accountsAPI, sessions sessionStore, in io.Reader, out io.Writer) *App {
	return &App{api: api, sessions: sessions, reader: bufio.NewReader(in), out: out}
}

func (a *App) restoreSession(ctx context.Context) error {
	s, err := a.sessions.Load(ctx)
	if errors.Is(err, client.ErrNotLoggedIn) {
		return nil
	}
	if err != nil {
		return err
	}
	a.email = s.Email
	a.api.SetToken(s.Token)
	return nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Run executes the command in args, or starts the prompt when args is empty.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		if err := a.api.Ping(ctx); err != nil {
			printlnFn("Warning:", err)
		}
		runREPL(ctx, a, a.reader)
		return nil
	}
	return a.Exec(ctx, args[0], args[1:])
}

func (a *App) isLoggedIn() bool {
	return a.email != ""
}

func (a *App) status() string {
	if a.email == "" {
		return ""
	}
	return "(" + a.email + ")"
}
