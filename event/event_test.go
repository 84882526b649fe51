package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db/models"
	"go.uber.org/zap"
)

func newTestContext(t *testing.T) core.Context {
	t.Helper()

	ctx, err := core.NewContext(nil, core.NewLoggerFromZap(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(ctx.Cancel)

	return ctx
}

func TestFireAccountCreatedEvent(t *testing.T) {
	ctx := newTestContext(t)

	var got *models.Account
	Listen[*AccountCreatedEvent](ctx, EVENT_ACCOUNT_CREATED, func(evt *AccountCreatedEvent) error {
		got = evt.Account()
		return nil
	})

	account := &models.Account{ID: "abc", Email: "a@example.com"}
	require.NoError(t, FireAccountCreatedEvent(ctx, account))
	assert.Same(t, account, got)
}

func TestFireAccountRemovedEvent_FreshInstancePerFire(t *testing.T) {
	ctx := newTestContext(t)

	var ids []string
	Listen[*AccountRemovedEvent](ctx, EVENT_ACCOUNT_REMOVED, func(evt *AccountRemovedEvent) error {
		ids = append(ids, evt.AccountID())
		return nil
	})

	require.NoError(t, FireAccountRemovedEvent(ctx, "one"))
	require.NoError(t, FireAccountRemovedEvent(ctx, "two"))
	assert.Equal(t, []string{"one", "two"}, ids)
}

func TestFire_UnknownEvent(t *testing.T) {
	ctx := newTestContext(t)

	err := Fire[*AccountRemovedEvent](ctx, "account.unknown", func(evt *AccountRemovedEvent) error {
		return nil
	})
	assert.ErrorContains(t, err, "not registered")
}
