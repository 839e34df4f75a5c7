package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubscriptionFixture(t *testing.T) (*fixture, *SubscriptionService) {
	t.Helper()
	f := newFixture(t)
	f.register(t, "a@x.com", "secret1")
	return f, NewSubscriptionService(memory.Handle(), f.manager, logging.NewDiscardLogger())
}

func TestSubscription_StatusAfterRegister(t *testing.T) {
	_, svc := newSubscriptionFixture(t)

	st, err := svc.Status(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, st.Subscribed)
	require.NotNil(t, st.UnsubscribeToken)
}

func TestSubscription_UnsubscribeByTokenThenResubscribe(t *testing.T) {
	_, svc := newSubscriptionFixture(t)
	ctx := context.Background()

	st, _ := svc.Status(ctx, "a@x.com")
	oldToken := *st.UnsubscribeToken

	res, err := svc.Unsubscribe(ctx, oldToken, "")
	require.NoError(t, err)
	assert.Equal(t, &SubscriptionResult{Message: "Successfully unsubscribed from updates", Subscribed: false}, res)

	st, _ = svc.Status(ctx, "a@x.com")
	assert.False(t, st.Subscribed)

	sub, err := svc.Subscribe(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Successfully subscribed to updates", sub.Message)

	st, _ = svc.Status(ctx, "a@x.com")
	assert.True(t, st.Subscribed)
	assert.NotEqual(t, oldToken, *st.UnsubscribeToken, "subscribing rotates the token")

	_, err = svc.Unsubscribe(ctx, oldToken, "")
	assertFailure(t, err, common.ErrorNotFound, "Subscription not found")
}

func TestSubscription_UnsubscribeByEmail(t *testing.T) {
	_, svc := newSubscriptionFixture(t)

	_, err := svc.Unsubscribe(context.Background(), "", "a@x.com")
	require.NoError(t, err)

	_, err = svc.Unsubscribe(context.Background(), "", "nobody@x.com")
	assertFailure(t, err, common.ErrorNotFound, "Subscription not found")
}

func TestSubscription_Validation(t *testing.T) {
	_, svc := newSubscriptionFixture(t)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "")
	assertFailure(t, err, common.ErrorValidation, "Email is required")

	_, err = svc.Subscribe(ctx, "nobody@x.com")
	assertFailure(t, err, common.ErrorNotFound, "User not found")

	_, err = svc.Unsubscribe(ctx, " ", "")
	assertFailure(t, err, common.ErrorValidation, "Token or email is required")

	_, err = svc.Status(ctx, "")
	assertFailure(t, err, common.ErrorValidation, "Email is required")

	_, err = svc.Status(ctx, "nobody@x.com")
	assertFailure(t, err, common.ErrorNotFound, "User not found")
}
