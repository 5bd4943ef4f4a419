/*
Package domain contains the core vocabulary shared by the conduit bus and state engine.

It defines event keys, game states, transition requests and the error taxonomy. The package is
kept free of I/O and of any dependency on the bus or engine so subsystems can import it without
pulling in the runtime.

# Key Entities

  - Key: the name of a publishable event category, "<Domain>.<Action>" by convention.
  - GameState: one value of the host's game-state enumeration.
  - TransitionRequest: a single requested move from one GameState to another.
  - Phase: the payload delivered to State.Exit and State.Enter handlers.
*/
package domain
