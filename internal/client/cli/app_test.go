package cli

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/accounts/internal/client/client"
	"github.com/dmitrijs2005/accounts/internal/client/config"
)

type fakeAPI struct {
	token string
	calls []string

	loginErr   error
	meErr      error
	resetValid bool
	donations  *client.DonationSummary
	lastAmount float64
	lastPass   string
}

func (f *fakeAPI) record(c string) { f.calls = append(f.calls, c) }

func (f *fakeAPI) SetToken(token string) { f.token = token }

func (f *fakeAPI) Register(_ context.Context, email, password string) (*client.RegisterResult, error) {
	f.record("register " + email)
	f.lastPass = password
	return &client.RegisterResult{EmailSent: true, Message: "Registration successful"}, nil
}

func (f *fakeAPI) VerifyEmail(_ context.Context, email, code string) (*client.Session, error) {
	f.record("verify " + email + " " + code)
	f.token = "verified-tok"
	return &client.Session{User: &client.User{ID: "u1", Email: email, EmailVerified: true}, Token: "verified-tok"}, nil
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*client.Session, error) {
	f.record("login " + email)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.lastPass = password
	f.token = "tok"
	return &client.Session{User: &client.User{ID: "u1", Email: email}, Token: "tok"}, nil
}

func (f *fakeAPI) Me(context.Context) (*client.User, error) {
	f.record("me")
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &client.User{Email: "a@example.com", EmailVerified: true, CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeAPI) RequestReset(_ context.Context, email string) (string, error) {
	f.record("request-reset " + email)
	return "If the email exists, a reset code has been sent", nil
}

func (f *fakeAPI) VerifyResetCode(_ context.Context, email, code string) (*client.ResetCodeCheck, error) {
	f.record("verify-reset " + email + " " + code)
	if !f.resetValid {
		return &client.ResetCodeCheck{Message: "Invalid reset code"}, nil
	}
	return &client.ResetCodeCheck{Message: "Code verified", Valid: true}, nil
}

func (f *fakeAPI) ResetPassword(_ context.Context, email, code, password string) (string, error) {
	f.record("reset " + email + " " + code)
	f.lastPass = password
	return "Password reset successfully", nil
}

func (f *fakeAPI) DeleteAccount(context.Context) (string, error) {
	f.record("delete")
	f.token = ""
	return "Account deleted successfully", nil
}

func (f *fakeAPI) Donate(_ context.Context, amount float64) (*client.Donation, error) {
	f.record("donate")
	f.lastAmount = amount
	return &client.Donation{ID: "d1", Amount: amount, Status: "completed"}, nil
}

func (f *fakeAPI) Donations(context.Context) (*client.DonationSummary, error) {
	f.record("donations")
	if f.donations == nil {
		return &client.DonationSummary{Donations: []client.Donation{}}, nil
	}
	return f.donations, nil
}

func (f *fakeAPI) Subscribe(_ context.Context, email string) (string, error) {
	f.record("subscribe " + email)
	return "Subscribed successfully", nil
}

func (f *fakeAPI) Unsubscribe(_ context.Context, token, email string) (string, error) {
	f.record("unsubscribe " + email)
	return "Unsubscribed successfully", nil
}

func (f *fakeAPI) SubscriptionStatus(_ context.Context, email string) (*client.SubscriptionStatus, error) {
	f.record("subscription " + email)
	return &client.SubscriptionStatus{Subscribed: true}, nil
}

func (f *fakeAPI) Ping(context.Context) error { return nil }

type fakeSessions struct {
	saved *client.StoredSession
}

func (f *fakeSessions) Load(context.Context) (*client.StoredSession, error) {
	if f.saved == nil {
		return nil, client.ErrNotLoggedIn
	}
	return f.saved, nil
}

func (f *fakeSessions) Save(_ context.Context, s client.StoredSession) error {
	f.saved = &s
	return nil
}

func (f *fakeSessions) Clear(context.Context) error {
	f.saved = nil
	return nil
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { readPassword = old })
}

func newTestApp(input string) (*App, *fakeAPI, *fakeSessions, *bytes.Buffer) {
	api := &fakeAPI{}
	sessions := &fakeSessions{}
	var out bytes.Buffer
	return newApp(api, sessions, strings.NewReader(input), &out), api, sessions, &out
}

func TestExec_RegisterPromptsForMissingEmail(t *testing.T) {
	stubPassword(t, "secret1")
	a, api, _, out := newTestApp("a@example.com\n")

	require.NoError(t, a.Exec(context.Background(), "register", nil))

	assert.Equal(t, []string{"register a@example.com"}, api.calls)
	assert.Equal(t, "secret1", api.lastPass)
	assert.Contains(t, out.String(), "verify a@example.com <code>")
}

func TestExec_LoginSavesSession(t *testing.T) {
	stubPassword(t, "secret1")
	a, _, sessions, out := newTestApp("")

	require.NoError(t, a.Exec(context.Background(), "login", []string{"a@example.com"}))

	assert.Equal(t, &client.StoredSession{Email: "a@example.com", Token: "tok"}, sessions.saved)
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(a@example.com)", a.status())
	assert.Contains(t, out.String(), "Logged in as a@example.com")
}

func TestExec_VerifySavesSession(t *testing.T) {
	a, api, sessions, out := newTestApp("")

	require.NoError(t, a.Exec(context.Background(), "verify", []string{"a@example.com", "123456"}))

	assert.Equal(t, []string{"verify a@example.com 123456"}, api.calls)
	assert.Equal(t, &client.StoredSession{Email: "a@example.com", Token: "verified-tok"}, sessions.saved)
	assert.True(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Email verified, logged in as a@example.com")
}

func TestExec_LoginFailureKeepsLoggedOut(t *testing.T) {
	stubPassword(t, "wrong")
	a, api, sessions, _ := newTestApp("")
	api.loginErr = &client.APIError{Status: http.StatusUnauthorized, Code: "invalid_credentials", Message: "Invalid credentials"}

	err := a.Exec(context.Background(), "login", []string{"a@example.com"})
	assert.EqualError(t, err, "invalid_credentials: Invalid credentials")
	assert.Nil(t, sessions.saved)
	assert.False(t, a.isLoggedIn())
}

func TestExec_SessionCommandsRequireLogin(t *testing.T) {
	a, api, _, _ := newTestApp("")

	for _, name := range []string{"whoami", "delete", "donate", "donations"} {
		assert.ErrorIs(t, a.Exec(context.Background(), name, nil), client.ErrNotLoggedIn, name)
	}
	assert.Empty(t, api.calls)
}

func TestExec_ExpiredSessionIsForgotten(t *testing.T) {
	a, api, sessions, _ := newTestApp("")
	sessions.saved = &client.StoredSession{Email: "a@example.com", Token: "old"}
	require.NoError(t, a.restoreSession(context.Background()))
	assert.Equal(t, "old", api.token)

	api.meErr = &client.APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "Invalid or expired session"}
	err := a.Exec(context.Background(), "whoami", nil)

	assert.EqualError(t, err, "session expired, please log in again")
	assert.Nil(t, sessions.saved)
	assert.Empty(t, api.token)
	assert.False(t, a.isLoggedIn())
}

func TestExec_Whoami(t *testing.T) {
	a, _, _, out := newTestApp("")
	a.email = "a@example.com"

	require.NoError(t, a.Exec(context.Background(), "whoami", nil))
	assert.Equal(t, "a@example.com (verified), member since 2026-01-02\n", out.String())
}

func TestExec_ResetChecksCodeFirst(t *testing.T) {
	stubPassword(t, "newpass")
	a, api, _, _ := newTestApp("")

	err := a.Exec(context.Background(), "reset", []string{"a@example.com", "000000"})
	assert.EqualError(t, err, "Invalid reset code")
	assert.Equal(t, []string{"verify-reset a@example.com 000000"}, api.calls)

	api.resetValid = true
	require.NoError(t, a.Exec(context.Background(), "reset", []string{"a@example.com", "123456"}))
	assert.Equal(t, "reset a@example.com 123456", api.calls[len(api.calls)-1])
	assert.Equal(t, "newpass", api.lastPass)
}

func TestExec_DeleteNeedsConfirmation(t *testing.T) {
	a, api, sessions, out := newTestApp("nope\na@example.com\n")
	a.email = "a@example.com"
	sessions.saved = &client.StoredSession{Email: "a@example.com", Token: "tok"}

	require.NoError(t, a.Exec(context.Background(), "delete", nil))
	assert.Empty(t, api.calls)
	assert.Contains(t, out.String(), "Cancelled")

	require.NoError(t, a.Exec(context.Background(), "delete", nil))
	assert.Equal(t, []string{"delete"}, api.calls)
	assert.Nil(t, sessions.saved)
	assert.False(t, a.isLoggedIn())
}

func TestExec_Donate(t *testing.T) {
	a, api, _, out := newTestApp("")
	a.email = "a@example.com"

	require.NoError(t, a.Exec(context.Background(), "donate", []string{"12.5"}))
	assert.Equal(t, 12.5, api.lastAmount)
	assert.Contains(t, out.String(), "Donation d1 of 12.50 is completed")

	assert.EqualError(t, a.Exec(context.Background(), "donate", []string{"lots"}), "usage: donate <amount>")
	assert.EqualError(t, a.Exec(context.Background(), "donate", nil), "usage: donate <amount>")
}

func TestExec_Donations(t *testing.T) {
	a, api, _, out := newTestApp("")
	a.email = "a@example.com"

	require.NoError(t, a.Exec(context.Background(), "donations", nil))
	assert.Contains(t, out.String(), "No donations yet")

	api.donations = &client.DonationSummary{
		Donations: []client.Donation{{ID: "d2", Amount: 3, Status: "completed"}, {ID: "d1", Amount: 2, Status: "completed"}},
		Total:     5,
	}
	out.Reset()
	require.NoError(t, a.Exec(context.Background(), "donations", nil))
	assert.Contains(t, out.String(), "Total: 5.00")
}

func TestExec_EmailDefaultsToSession(t *testing.T) {
	a, api, _, _ := newTestApp("")
	a.email = "a@example.com"

	require.NoError(t, a.Exec(context.Background(), "subscribe", nil))
	require.NoError(t, a.Exec(context.Background(), "subscription", nil))
	require.NoError(t, a.Exec(context.Background(), "unsubscribe", []string{"b@example.com"}))

	assert.Equal(t, []string{"subscribe a@example.com", "subscription a@example.com", "unsubscribe b@example.com"}, api.calls)
}

func TestExec_UnknownAndHelp(t *testing.T) {
	a, _, _, out := newTestApp("")

	assert.EqualError(t, a.Exec(context.Background(), "frobnicate", nil), `unknown command "frobnicate", try help`)

	require.NoError(t, a.Exec(context.Background(), "help", nil))
	for _, name := range []string{"register", "verify", "login", "whoami", "request-reset", "reset", "delete", "donate", "donations"} {
		assert.Contains(t, out.String(), "  "+name)
	}
}

func TestExec_EmptyPromptIsUsageError(t *testing.T) {
	a, _, _, _ := newTestApp("\n")

	assert.EqualError(t, a.Exec(context.Background(), "verify", nil), "usage: verify [email] [code]")
}

func TestNewApp_RestoresSavedSession(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{ServerURL: "http://127.0.0.1:1", Timeout: time.Second, StateFile: filepath.Join(t.TempDir(), "s.db")}

	db, err := client.OpenState(ctx, cfg.StateFile)
	require.NoError(t, err)
	require.NoError(t, client.NewSessionStore(db).Save(ctx, client.StoredSession{Email: "a@example.com", Token: "tok"}))
	require.NoError(t, db.Close())

	a, err := NewApp(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "a@example.com", a.email)
}
