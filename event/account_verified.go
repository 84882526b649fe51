package event

import (
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db/models"
)

const (
	EVENT_ACCOUNT_VERIFIED = "account.verified"
)

func init() {
	core.RegisterEvent(EVENT_ACCOUNT_VERIFIED, &AccountVerifiedEvent{})
}

type AccountVerifiedEvent struct {
	core.Event
}

func (e *AccountVerifiedEvent) SetAccount(account *models.Account) {
	e.Set("account", account)
}

func (e AccountVerifiedEvent) Account() *models.Account {
	return e.Get("account").(*models.Account)
}

func FireAccountVerifiedEvent(ctx core.Context, account *models.Account) error {
	return Fire[*AccountVerifiedEvent](ctx, EVENT_ACCOUNT_VERIFIED, func(evt *AccountVerifiedEvent) error {
		evt.SetAccount(account)
		return nil
	})
}
