// Package services implements the account lifecycle and its collaborators
// on top of the repository layer. Every failure returned to callers is a
// *common.OperationError classified by one of the common sentinels.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/cryptox"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/config"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/notify"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
)

const minPasswordLen = 6

const (
	msgCredentialsRequired = "Email and password are required"
	msgCodeRequired        = "Email and code are required"
	msgInvalidCredentials  = "Invalid email or password"
	msgAuthRequired        = "Authentication required"
	msgInvalidToken        = "Invalid or expired token"
	msgUserNotFound        = "User not found"
	msgResetRequested      = "If email exists, reset code has been sent"
)

// Settings are the lifecycle knobs taken from configuration.
type Settings struct {
	VerificationCodeTTL  time.Duration
	ResetCodeTTL         time.Duration
	SessionTTL           time.Duration
	RequireVerifiedEmail bool
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		VerificationCodeTTL:  cfg.VerificationCodeTTL,
		ResetCodeTTL:         cfg.ResetCodeTTL,
		SessionTTL:           cfg.SessionTTL,
		RequireVerifiedEmail: cfg.RequireVerifiedEmail,
	}
}

type RegisterResult struct {
	User      *models.PublicUser `json:"user"`
	EmailSent bool               `json:"email_sent"`
	Message   string             `json:"message"`
}

// SessionResult is returned by operations that open a session.
type SessionResult struct {
	User  *models.PublicUser `json:"user"`
	Token string             `json:"token"`
}

type MessageResult struct {
	Message string `json:"message"`
}

type ResetCodeCheck struct {
	Message string `json:"message"`
	Valid   bool   `json:"valid"`
}

type AccountService struct {
	db          dbx.DBTX
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	hasher      cryptox.Hasher
	tokens      cryptox.TokenIssuer
	notifier    notify.Notifier
	log         logging.Logger
	settings    Settings
	now         func() time.Time

	// dummyDigest is verified against when the email is unknown so a
	// failed login costs the same either way.
	dummyDigest string
}

func NewAccountService(
	db dbx.DBTX,
	tx dbx.Transactor,
	m repomanager.RepositoryManager,
	hasher cryptox.Hasher,
	notifier notify.Notifier,
	log logging.Logger,
	settings Settings,
) *AccountService {
	dummy, _ := hasher.Hash("dummy-password-for-timing")
	return &AccountService{
		db:          db,
		tx:          tx,
		repomanager: m,
		hasher:      hasher,
		tokens:      cryptox.NewRandomIssuer(),
		notifier:    notifier,
		log:         log,
		settings:    settings,
		now:         time.Now,
		dummyDigest: dummy,
	}
}

// expired reports whether a value expiring at expires is unusable at now.
// A value expiring exactly now is expired.
func expired(now, expires time.Time) bool {
	return !now.Before(expires)
}

func codesEqual(stored *string, supplied string) bool {
	if stored == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(supplied)) == 1
}

func (s *AccountService) hashPassword(password string) (string, error) {
	digest, err := s.hasher.Hash(password)
	if errors.Is(err, cryptox.ErrPasswordTooLong) {
		return "", common.ValidationFailed("password", "Password must be 72 bytes or fewer")
	}
	return digest, err
}

func (s *AccountService) Register(ctx context.Context, email, password string) (*RegisterResult, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	if err := requireFields(msgCredentialsRequired, field{"email", email}, field{"password", password}); err != nil {
		return nil, err
	}
	if err := validatePassword(email, password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, internalError(ctx, s.log, "checking email", err)
	}
	if exists {
		return nil, common.NewOperationError(common.ErrorConflict, "User with this email already exists")
	}

	digest, err := s.hashPassword(password)
	if err != nil {
		return nil, internalError(ctx, s.log, "hashing password", err)
	}
	code, err := s.tokens.OneTimeCode()
	if err != nil {
		return nil, internalError(ctx, s.log, "generating verification code", err)
	}
	unsubscribe, err := s.tokens.UnsubscribeToken()
	if err != nil {
		return nil, internalError(ctx, s.log, "generating unsubscribe token", err)
	}
	expires := s.now().UTC().Add(s.settings.VerificationCodeTTL)

	user, err := repo.Create(ctx, &models.User{
		Email:                   email,
		PasswordHash:            digest,
		VerificationCode:        &code,
		VerificationCodeExpires: &expires,
		SubscribedToUpdates:     true,
		UnsubscribeToken:        &unsubscribe,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewOperationError(common.ErrorConflict, "User with this email already exists")
		}
		return nil, internalError(ctx, s.log, "creating user", err)
	}

	sent := s.notifier.Send(ctx, email, notify.KindEmailVerification, map[string]string{"code": code})
	if !sent {
		s.log.Warn(ctx, "notification not delivered", "kind", notify.KindEmailVerification, "user_id", user.ID)
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID, "email_sent", sent)

	return &RegisterResult{
		User:      user.Public(),
		EmailSent: sent,
		Message:   "Verification code has been sent to your email",
	}, nil
}

func (s *AccountService) VerifyEmail(ctx context.Context, email, code string) (*SessionResult, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)

	if err := requireFields(msgCodeRequired, field{"email", email}, field{"code", code}); err != nil {
		return nil, err
	}

	var result *SessionResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		user, err := users.GetByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewOperationError(common.ErrorNotFound, msgUserNotFound)
			}
			return err
		}

		if user.EmailVerified {
			return common.NewOperationError(common.ErrorConflict, "Email already verified")
		}
		now := s.now()
		if user.VerificationCodeExpires != nil && expired(now, *user.VerificationCodeExpires) {
			return common.NewOperationError(common.ErrorExpired, "Verification code expired")
		}
		if !codesEqual(user.VerificationCode, code) {
			return common.NewOperationError(common.ErrorInvalidCode, "Invalid verification code")
		}

		if err := users.MarkEmailVerified(ctx, user.ID); err != nil {
			return err
		}
		user.EmailVerified = true

		token, err := s.openSession(ctx, tx, user.ID, now)
		if err != nil {
			return err
		}

		result = &SessionResult{User: user.Public(), Token: token}
		return nil
	})
	if err != nil {
		return nil, internalError(ctx, s.log, "verifying email", err)
	}

	s.log.Info(ctx, "email verified", "user_id", result.User.ID)
	return result, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	if err := requireFields(msgCredentialsRequired, field{"email", email}, field{"password", password}); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, internalError(ctx, s.log, "loading user", err)
		}
		s.hasher.Verify(s.dummyDigest, password)
		return nil, common.NewOperationError(common.ErrorInvalidCredentials, msgInvalidCredentials)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, common.NewOperationError(common.ErrorInvalidCredentials, msgInvalidCredentials)
	}

	if s.settings.RequireVerifiedEmail && !user.EmailVerified {
		return nil, common.NewOperationError(common.ErrorForbidden, "Email is not verified")
	}

	now := s.now()
	token, err := s.openSession(ctx, s.db, user.ID, now)
	if err != nil {
		return nil, internalError(ctx, s.log, "creating session", err)
	}

	active, err := s.repomanager.Sessions(s.db).CountByUser(ctx, user.ID, now)
	if err != nil {
		s.log.Warn(ctx, "counting sessions", "user_id", user.ID, "error", err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID, "active_sessions", active)
	return &SessionResult{User: user.Public(), Token: token}, nil
}

// SessionUser resolves a bearer token to its owner.
func (s *AccountService) SessionUser(ctx context.Context, token string) (*models.PublicUser, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, common.NewOperationError(common.ErrorUnauthorized, msgAuthRequired)
	}

	user, err := s.repomanager.Users(s.db).GetBySessionToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewOperationError(common.ErrorUnauthorized, msgInvalidToken)
		}
		return nil, internalError(ctx, s.log, "resolving session", err)
	}

	return user.Public(), nil
}

// RequestPasswordReset answers the same way whether or not email belongs
// to an account.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (*MessageResult, error) {
	email = strings.TrimSpace(email)
	if err := requireFields("Email is required", field{"email", email}); err != nil {
		return nil, err
	}

	generic := &MessageResult{Message: msgResetRequested}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return generic, nil
		}
		return nil, internalError(ctx, s.log, "loading user", err)
	}

	code, err := s.tokens.OneTimeCode()
	if err != nil {
		return nil, internalError(ctx, s.log, "generating reset code", err)
	}
	expires := s.now().UTC().Add(s.settings.ResetCodeTTL)

	if err := repo.SetResetCode(ctx, user.ID, code, expires); err != nil {
		return nil, internalError(ctx, s.log, "storing reset code", err)
	}

	sent := s.notifier.Send(ctx, email, notify.KindPasswordReset, map[string]string{"code": code})
	if !sent {
		s.log.Warn(ctx, "notification not delivered", "kind", notify.KindPasswordReset, "user_id", user.ID)
	}
	s.log.Info(ctx, "password reset requested", "user_id", user.ID, "email_sent", sent)

	return generic, nil
}

// VerifyResetCode checks a reset code without consuming it.
func (s *AccountService) VerifyResetCode(ctx context.Context, email, code string) (*ResetCodeCheck, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)

	if err := requireFields(msgCodeRequired, field{"email", email}, field{"code", code}); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewOperationError(common.ErrorNotFound, msgUserNotFound)
		}
		return nil, internalError(ctx, s.log, "loading user", err)
	}

	if user.ResetCode == nil || user.ResetCodeExpires == nil {
		return nil, common.NewOperationError(common.ErrorConflict, "No reset code requested")
	}
	if expired(s.now(), *user.ResetCodeExpires) {
		return nil, common.NewOperationError(common.ErrorExpired, "Reset code expired")
	}
	if !codesEqual(user.ResetCode, code) {
		return nil, common.NewOperationError(common.ErrorInvalidCode, "Invalid reset code")
	}

	return &ResetCodeCheck{Message: "Reset code verified", Valid: true}, nil
}

// ResetPassword stores a new password and ends every session of the user
// in one commit.
func (s *AccountService) ResetPassword(ctx context.Context, email, code, newPassword string) (*MessageResult, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	newPassword = strings.TrimSpace(newPassword)

	err := requireFields("Email, code and password are required",
		field{"email", email}, field{"code", code}, field{"password", newPassword})
	if err != nil {
		return nil, err
	}
	if err := validatePassword(email, newPassword); err != nil {
		return nil, err
	}

	digest, err := s.hashPassword(newPassword)
	if err != nil {
		return nil, internalError(ctx, s.log, "hashing password", err)
	}

	var userID string
	var purged int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		user, err := users.GetByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewOperationError(common.ErrorNotFound, msgUserNotFound)
			}
			return err
		}

		if user.ResetCodeExpires == nil || !codesEqual(user.ResetCode, code) {
			return common.NewOperationError(common.ErrorInvalidCode, "Invalid reset code")
		}
		if expired(s.now(), *user.ResetCodeExpires) {
			return common.NewOperationError(common.ErrorExpired, "Reset code expired")
		}

		if err := users.UpdatePassword(ctx, user.ID, digest); err != nil {
			return err
		}
		purged, err = s.repomanager.Sessions(tx).DeleteByUser(ctx, user.ID)
		if err != nil {
			return err
		}

		userID = user.ID
		return nil
	})
	if err != nil {
		return nil, internalError(ctx, s.log, "resetting password", err)
	}

	s.log.Info(ctx, "password reset committed", "user_id", userID, "sessions_revoked", purged)
	return &MessageResult{Message: "Password reset successfully"}, nil
}

// DeleteAccount removes the token owner together with all sessions and
// donations, all or nothing.
func (s *AccountService) DeleteAccount(ctx context.Context, token string) (*MessageResult, error) {
	user, err := s.SessionUser(ctx, token)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Sessions(tx).DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		if _, err := s.repomanager.Donations(tx).DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		return s.repomanager.Users(tx).Delete(ctx, user.ID)
	})
	if err != nil {
		return nil, internalError(ctx, s.log, "deleting account", err)
	}

	s.log.Info(ctx, "account deleted", "user_id", user.ID)
	return &MessageResult{Message: "Account deleted successfully"}, nil
}

func (s *AccountService) openSession(ctx context.Context, db dbx.DBTX, userID string, now time.Time) (string, error) {
	token, err := s.tokens.SessionToken()
	if err != nil {
		return "", err
	}

	err = s.repomanager.Sessions(db).Create(ctx, &models.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.UTC().Add(s.settings.SessionTTL),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}
