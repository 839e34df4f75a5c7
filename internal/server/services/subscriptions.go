package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/cryptox"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
)

type SubscriptionResult struct {
	Message    string `json:"message"`
	Subscribed bool   `json:"subscribed"`
}

type SubscriptionStatus struct {
	Subscribed       bool    `json:"subscribed"`
	UnsubscribeToken *string `json:"unsubscribe_token"`
}

type SubscriptionService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	tokens      cryptox.TokenIssuer
	log         logging.Logger
}

func NewSubscriptionService(db dbx.DBTX, m repomanager.RepositoryManager, log logging.Logger) *SubscriptionService {
	return &SubscriptionService{db: db, repomanager: m, tokens: cryptox.NewRandomIssuer(), log: log}
}

// Subscribe turns update mail on for email and issues a new unsubscribe
// token, invalidating the previous one.
func (s *SubscriptionService) Subscribe(ctx context.Context, email string) (*SubscriptionResult, error) {
	email = strings.TrimSpace(email)
	if err := requireFields("Email is required", field{"email", email}); err != nil {
		return nil, err
	}

	token, err := s.tokens.UnsubscribeToken()
	if err != nil {
		return nil, internalError(ctx, s.log, "generating unsubscribe token", err)
	}

	n, err := s.repomanager.Users(s.db).Subscribe(ctx, email, token)
	if err != nil {
		return nil, internalError(ctx, s.log, "subscribing", err)
	}
	if n == 0 {
		return nil, common.NewOperationError(common.ErrorNotFound, msgUserNotFound)
	}

	return &SubscriptionResult{Message: "Successfully subscribed to updates", Subscribed: true}, nil
}

// Unsubscribe matches by token when one is given and by email otherwise.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, token, email string) (*SubscriptionResult, error) {
	token = strings.TrimSpace(token)
	email = strings.TrimSpace(email)
	if token == "" && email == "" {
		return nil, common.ValidationFailed("token", "Token or email is required")
	}

	repo := s.repomanager.Users(s.db)

	var n int64
	var err error
	if token != "" {
		n, err = repo.UnsubscribeByToken(ctx, token)
	} else {
		n, err = repo.UnsubscribeByEmail(ctx, email)
	}
	if err != nil {
		return nil, internalError(ctx, s.log, "unsubscribing", err)
	}
	if n == 0 {
		return nil, common.NewOperationError(common.ErrorNotFound, "Subscription not found")
	}

	return &SubscriptionResult{Message: "Successfully unsubscribed from updates", Subscribed: false}, nil
}

func (s *SubscriptionService) Status(ctx context.Context, email string) (*SubscriptionStatus, error) {
	email = strings.TrimSpace(email)
	if err := requireFields("Email is required", field{"email", email}); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewOperationError(common.ErrorNotFound, msgUserNotFound)
		}
		return nil, internalError(ctx, s.log, "loading user", err)
	}

	return &SubscriptionStatus{Subscribed: user.SubscribedToUpdates, UnsubscribeToken: user.UnsubscribeToken}, nil
}
