package event

import (
	"go.lumeweb.com/accounts/core"
)

const (
	EVENT_ACCOUNT_REMOVED = "account.removed"
)

func init() {
	core.RegisterEvent(EVENT_ACCOUNT_REMOVED, &AccountRemovedEvent{})
}

// AccountRemovedEvent only carries the id, the record is already gone when it fires.
type AccountRemovedEvent struct {
	core.Event
}

func (e *AccountRemovedEvent) SetAccountID(id string) {
	e.Set("account_id", id)
}

func (e AccountRemovedEvent) AccountID() string {
	return e.Get("account_id").(string)
}

func FireAccountRemovedEvent(ctx core.Context, id string) error {
	return Fire[*AccountRemovedEvent](ctx, EVENT_ACCOUNT_REMOVED, func(evt *AccountRemovedEvent) error {
		evt.SetAccountID(id)
		return nil
	})
}
