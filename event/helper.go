package event

import (
	"fmt"

	"github.com/gookit/event"
	"go.lumeweb.com/accounts/core"
)

// Fire builds a fresh event of type T, lets fill populate it and dispatches it synchronously.
func Fire[T core.Eventer](ctx core.Context, name string, fill func(evt T) error) error {
	evt, err := core.NewEvent(name)
	if err != nil {
		return err
	}

	typedEvt, err := assertEventType[T](evt, name)
	if err != nil {
		return err
	}

	if err := fill(typedEvt); err != nil {
		return err
	}

	return ctx.Event().FireEvent(typedEvt)
}

// Listen registers a typed listener for the named event.
func Listen[T core.Eventer](ctx core.Context, name string, fn func(evt T) error) {
	ctx.Event().On(name, event.ListenerFunc(func(e event.Event) error {
		typedEvt, err := assertEventType[T](e, name)
		if err != nil {
			return err
		}
		return fn(typedEvt)
	}))
}

// Helper function to assert event type
func assertEventType[T core.Eventer](evt any, eventName string) (T, error) {
	typedEvt, ok := evt.(T)
	if !ok {
		return *new(T), fmt.Errorf("event %s is not of expected type", eventName)
	}
	return typedEvt, nil
}
