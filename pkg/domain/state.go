package domain

// GameState identifies one state of the host game.
// The constants below are the built-in set; hosts may declare additional values.
type GameState string

const (
	StateBoot     GameState = "Boot"
	StateLogin    GameState = "Login"
	StateLobby    GameState = "Lobby"
	StateRoom     GameState = "Room"
	StateGameplay GameState = "Gameplay"
)

// BuiltinStates lists the built-in states in their natural boot order.
var BuiltinStates = []GameState{StateBoot, StateLogin, StateLobby, StateRoom, StateGameplay}

func (s GameState) String() string {
	return string(s)
}

// IsZero reports whether the state is unset.
func (s GameState) IsZero() bool {
	return s == ""
}

// Phase is the payload published on KeyStateExit and KeyStateEnter.
// Done must be called exactly once by every handler that receives it,
// either synchronously or after the handler's own asynchronous work.
type Phase struct {
	// State is the state being left (exit) or entered (enter).
	State GameState
	// Done signals this handler's completion of the phase.
	Done func()
}
