package bus_test

import (
	"fmt"

	"github.com/aretw0/conduit/pkg/bus"
)

func ExamplePublish() {
	b := bus.New()
	for _, name := range []string{"A", "B", "C"} {
		_, _ = bus.Subscribe(b, "UI.Action", bus.NewListener(name, func(action string) {
			fmt.Printf("%s(%s)\n", name, action)
		}))
	}

	bus.Publish(b, "UI.Action", "ClickLogin")

	// Output:
	// A(ClickLogin)
	// B(ClickLogin)
	// C(ClickLogin)
}
