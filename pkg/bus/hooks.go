package bus

import (
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/registry"
)

// Hooks are optional callbacks for bus observability.
// They run synchronously on the goroutine that triggered them and must not call back into the bus.
type Hooks struct {
	OnSubscribe   func(key domain.Key, handler string, outcome registry.Outcome)
	OnUnsubscribe func(key domain.Key, handler string, outcome registry.Outcome)
	OnPublish     func(key domain.Key, handlers int)
	OnFault       func(fault *domain.HandlerFault)
}
