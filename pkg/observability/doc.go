/*
Package observability provides Prometheus instrumentation for the conduit bus and state engine.

Metrics plugs into the bus and engine through their hook structs, so neither core package depends
on Prometheus:

	m := observability.NewMetrics(prometheus.NewRegistry())
	b := bus.New(bus.WithHooks(m.BusHooks()))
	e := state.New(b, domain.StateBoot, state.WithHooks(m.StateHooks()))
*/
package observability
