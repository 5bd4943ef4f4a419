/*
Package conduit is an in-process event bus and two-phase state-transition engine for game hosts.

Subsystems (login, room, battle, UI) never reference one another. They subscribe typed handlers to
named events on a shared bus and take part in game-state changes through the State.Exit and
State.Enter phases, each of which completes only when every participating handler calls back.

# Concept

The bus (package bus) dispatches synchronously, in registration order, over a snapshot of the
handlers registered when Publish starts. The engine (package state) owns the current game state;
ChangeState runs Exit, waits on a counted barrier, runs Enter, waits again, and only then commits.
Transitions are queued and never interleave.

# Usage

	rt, err := conduit.New(conduit.WithTransitionTimeout(2 * time.Second))
	if err != nil {
		log.Fatal(err)
	}

	state.OnEnter(rt.Bus, "login-ui", state.Only(func(s domain.GameState, done func()) {
		showLoginScreen()
		done()
	}, domain.StateLogin))

	tr, err := rt.ChangeState(domain.StateLogin)
	if err != nil {
		log.Fatal(err)
	}
	<-tr.Done()
*/
package conduit
