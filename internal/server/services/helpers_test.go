package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/accounts/internal/cryptox"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/memory"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	address string
	kind    string
	payload map[string]string
}

type recordingNotifier struct {
	mu      sync.Mutex
	fail    bool
	records []sentMessage
}

func (n *recordingNotifier) Send(ctx context.Context, address, kind string, payload map[string]string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, sentMessage{address: address, kind: kind, payload: payload})
	return !n.fail
}

func (n *recordingNotifier) last(t *testing.T) sentMessage {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.records, "no notification sent")
	return n.records[len(n.records)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.records)
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	manager  repomanager.RepositoryManager
	notifier *recordingNotifier
	now      time.Time
	accounts *AccountService
}

func testSettings() Settings {
	return Settings{
		VerificationCodeTTL:  10 * time.Minute,
		ResetCodeTTL:         15 * time.Minute,
		SessionTTL:           30 * 24 * time.Hour,
		RequireVerifiedEmail: true,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:    store,
		manager:  memory.NewManager(store),
		notifier: &recordingNotifier{},
		now:      testNow,
	}
	f.accounts = f.newAccountService(f.manager)
	return f
}

func (f *fixture) newAccountService(m repomanager.RepositoryManager) *AccountService {
	svc := NewAccountService(memory.Handle(), f.store, m, cryptox.SHA256Hasher{}, f.notifier, logging.NewDiscardLogger(), testSettings())
	svc.now = func() time.Time { return f.now }
	return svc
}

// register creates an account and returns the emailed verification code.
func (f *fixture) register(t *testing.T, email, password string) string {
	t.Helper()
	_, err := f.accounts.Register(context.Background(), email, password)
	require.NoError(t, err)
	msg := f.notifier.last(t)
	require.Equal(t, email, msg.address)
	return msg.payload["code"]
}

// verified registers and verifies an account and returns its first token.
func (f *fixture) verified(t *testing.T, email, password string) string {
	t.Helper()
	code := f.register(t, email, password)
	res, err := f.accounts.VerifyEmail(context.Background(), email, code)
	require.NoError(t, err)
	return res.Token
}

func (f *fixture) requestReset(t *testing.T, email string) string {
	t.Helper()
	_, err := f.accounts.RequestPasswordReset(context.Background(), email)
	require.NoError(t, err)
	return f.notifier.last(t).payload["code"]
}
