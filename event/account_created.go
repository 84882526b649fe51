package event

import (
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db/models"
)

const (
	EVENT_ACCOUNT_CREATED = "account.created"
)

func init() {
	core.RegisterEvent(EVENT_ACCOUNT_CREATED, &AccountCreatedEvent{})
}

type AccountCreatedEvent struct {
	core.Event
}

func (e *AccountCreatedEvent) SetAccount(account *models.Account) {
	e.Set("account", account)
}

func (e AccountCreatedEvent) Account() *models.Account {
	return e.Get("account").(*models.Account)
}

func FireAccountCreatedEvent(ctx core.Context, account *models.Account) error {
	return Fire[*AccountCreatedEvent](ctx, EVENT_ACCOUNT_CREATED, func(evt *AccountCreatedEvent) error {
		evt.SetAccount(account)
		return nil
	})
}
