package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/accounts/internal/client/client"
	"github.com/dmitrijs2005/accounts/internal/common"
)

type command struct {
	usage   string
	session bool
	run     func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"register":      {usage: "register [email]", run: (*App).register},
	"verify":        {usage: "verify [email] [code]", run: (*App).verify},
	"login":         {usage: "login [email]", run: (*App).login},
	"logout":        {usage: "logout", run: (*App).logout},
	"whoami":        {usage: "whoami", session: true, run: (*App).whoami},
	"request-reset": {usage: "request-reset [email]", run: (*App).requestReset},
	"reset":         {usage: "reset [email] [code]", run: (*App).reset},
	"delete":        {usage: "delete", session: true, run: (*App).deleteAccount},
	"donate":        {usage: "donate <amount>", session: true, run: (*App).donate},
	"donations":     {usage: "donations", session: true, run: (*App).donations},
	"subscribe":     {usage: "subscribe [email]", run: (*App).subscribe},
	"unsubscribe":   {usage: "unsubscribe [email]", run: (*App).unsubscribe},
	"subscription":  {usage: "subscription [email]", run: (*App).subscription},
}

var errUsage = errors.New("usage")

// usage lists the commands, one per line, in name order.
func usage() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range names {
		b.WriteString("  " + commands[name].usage + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Exec runs a single command by name.
func (a *App) Exec(ctx context.Context, name string, args []string) error {
	if name == "help" {
		a.println(usage())
		return nil
	}

	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", name)
	}
	if cmd.session && !a.isLoggedIn() {
		return client.ErrNotLoggedIn
	}

	err := cmd.run(a, ctx, args)
	if errors.Is(err, errUsage) {
		return fmt.Errorf("usage: %s", cmd.usage)
	}
	if cmd.session && errors.Is(err, client.ErrUnauthorized) {
		a.forget(ctx)
		return errors.New("session expired, please log in again")
	}
	return err
}

func (a *App) println(v ...any) {
	fmt.Fprintln(a.out, v...)
}

// arg returns args[i], prompting for it when absent.
func (a *App) arg(args []string, i int, prompt string) (string, error) {
	if i < len(args) {
		return args[i], nil
	}
	v, err := GetSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", errUsage
	}
	return v, nil
}

// emailArg is like arg but falls back to the logged-in email.
func (a *App) emailArg(args []string) (string, error) {
	if len(args) == 0 && a.email != "" {
		return a.email, nil
	}
	return a.arg(args, 0, "Email")
}

func (a *App) password(prompt string) (string, error) {
	pw, err := GetPassword(a.out, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

func (a *App) forget(ctx context.Context) {
	a.email = ""
	a.api.SetToken("")
	if err := a.sessions.Clear(ctx); err != nil {
		a.println("Warning: could not clear saved session:", err)
	}
}

func (a *App) register(ctx context.Context, args []string) error {
	email, err := a.arg(args, 0, "Email")
	if err != nil {
		return err
	}
	pw, err := a.password("Password")
	if err != nil {
		return err
	}

	res, err := a.api.Register(ctx, email, pw)
	if err != nil {
		return err
	}
	a.println(res.Message)
	if res.EmailSent {
		a.println("Check your inbox, then run: verify", email, "<code>")
	}
	return nil
}

func (a *App) verify(ctx context.Context, args []string) error {
	email, err := a.arg(args, 0, "Email")
	if err != nil {
		return err
	}
	code, err := a.arg(args, 1, "Verification code")
	if err != nil {
		return err
	}

	sess, err := a.api.VerifyEmail(ctx, email, code)
	if err != nil {
		return err
	}
	if err := a.remember(ctx, sess); err != nil {
		return err
	}
	a.println("Email verified, logged in as", sess.User.Email)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	email, err := a.arg(args, 0, "Email")
	if err != nil {
		return err
	}
	pw, err := a.password("Password")
	if err != nil {
		return err
	}

	sess, err := a.api.Login(ctx, email, pw)
	if err != nil {
		return err
	}
	if err := a.remember(ctx, sess); err != nil {
		return err
	}
	a.println("Logged in as", sess.User.Email)
	return nil
}

func (a *App) remember(ctx context.Context, sess *client.Session) error {
	if err := a.sessions.Save(ctx, client.StoredSession{Email: sess.User.Email, Token: sess.Token}); err != nil {
		return err
	}
	a.email = sess.User.Email
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	a.forget(ctx)
	a.println("Logged out")
	return nil
}

func (a *App) whoami(ctx context.Context, _ []string) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	verified := "not verified"
	if u.EmailVerified {
		verified = "verified"
	}
	a.println(fmt.Sprintf("%s (%s), member since %s", u.Email, verified, u.CreatedAt.Format("2006-01-02")))
	return nil
}

func (a *App) requestReset(ctx context.Context, args []string) error {
	email, err := a.emailArg(args)
	if err != nil {
		return err
	}
	msg, err := a.api.RequestReset(ctx, email)
	if err != nil {
		return err
	}
	a.println(msg)
	return nil
}

// reset checks the code before asking for the new password.
func (a *App) reset(ctx context.Context, args []string) error {
	email, err := a.emailArg(args)
	if err != nil {
		return err
	}
	code, err := a.arg(args, 1, "Reset code")
	if err != nil {
		return err
	}

	check, err := a.api.VerifyResetCode(ctx, email, code)
	if err != nil {
		return err
	}
	if !check.Valid {
		return errors.New(check.Message)
	}

	pw, err := a.password("New password")
	if err != nil {
		return err
	}
	msg, err := a.api.ResetPassword(ctx, email, code, pw)
	if err != nil {
		return err
	}
	a.println(msg)
	return nil
}

func (a *App) deleteAccount(ctx context.Context, _ []string) error {
	confirm, err := GetSimpleText(a.reader, "Type "+a.email+" to delete the account and all its data", a.out)
	if err != nil {
		return err
	}
	if confirm != a.email {
		a.println("Cancelled")
		return nil
	}

	msg, err := a.api.DeleteAccount(ctx)
	if err != nil {
		return err
	}
	a.forget(ctx)
	a.println(msg)
	return nil
}

func (a *App) donate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return errUsage
	}

	d, err := a.api.Donate(ctx, amount)
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Thank you! Donation %s of %.2f is %s", d.ID, d.Amount, d.Status))
	return nil
}

func (a *App) donations(ctx context.Context, _ []string) error {
	sum, err := a.api.Donations(ctx)
	if err != nil {
		return err
	}
	if len(sum.Donations) == 0 {
		a.println("No donations yet")
		return nil
	}
	for _, d := range sum.Donations {
		a.println(fmt.Sprintf("%s  %10.2f  %s", d.CreatedAt.Format("2006-01-02 15:04"), d.Amount, d.Status))
	}
	a.println(fmt.Sprintf("Total: %.2f", sum.Total))
	return nil
}

func (a *App) subscribe(ctx context.Context, args []string) error {
	email, err := a.emailArg(args)
	if err != nil {
		return err
	}
	msg, err := a.api.Subscribe(ctx, email)
	if err != nil {
		return err
	}
	a.println(msg)
	return nil
}

func (a *App) unsubscribe(ctx context.Context, args []string) error {
	email, err := a.emailArg(args)
	if err != nil {
		return err
	}
	msg, err := a.api.Unsubscribe(ctx, "", email)
	if err != nil {
		return err
	}
	a.println(msg)
	return nil
}

func (a *App) subscription(ctx context.Context, args []string) error {
	email, err := a.emailArg(args)
	if err != nil {
		return err
	}
	st, err := a.api.SubscriptionStatus(ctx, email)
	if err != nil {
		return err
	}
	if st.Subscribed {
		a.println("Subscribed to updates")
	} else {
		a.println("Not subscribed")
	}
	return nil
}
