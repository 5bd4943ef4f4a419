/*
Package state implements the two-phase state-transition engine.

The engine owns the current domain.GameState. ChangeState queues a transition which, when it
reaches the head of the queue, runs two phases over the bus:

 1. domain.KeyStateExit is published with the state being left. Every handler snapshotted for the
    publish receives a Done callback bound to one counted barrier of that snapshot's size.
 2. Once every exit callback has fired, domain.KeyStateEnter is published with the new state under
    the same discipline.

Only after the enter barrier is satisfied does Current report the new state. Transitions never
interleave; requests made while one is running are queued in FIFO order.

No goroutine blocks while a phase is pending. Progress is driven by the Done calls themselves,
from whichever goroutine makes them. A per-phase timeout (WithTransitionTimeout) converts a handler
that never calls back into a logged StuckTransitionError naming the handlers that did not finish.

Handlers that do not care about a state should call done immediately; Only wraps a PhaseFunc
with that filter.
*/
package state
