/*
Package bus provides the in-process publish/subscribe event bus.

Handlers are registered per event key with a payload type fixed at the call site by a type
parameter. The first subscription binds the key's payload contract; later subscriptions with a
different payload type are rejected with a *domain.SignatureMismatchError.

	b := bus.New(bus.WithLogger(logger))

	clicks := bus.NewListener("menu", func(action string) {
		fmt.Println("clicked", action)
	})
	if _, err := bus.Subscribe(b, "UI.Action", clicks); err != nil {
		return err
	}

	bus.Publish(b, "UI.Action", "ClickLogin")

Publish dispatches synchronously on the caller's goroutine, in registration order, over a snapshot
taken when Publish starts. A panicking handler is recovered and logged; the remaining handlers
still run. Payloads that carry a completion callback are not awaited by the bus.
*/
package bus
