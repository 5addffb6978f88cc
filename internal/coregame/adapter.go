package coregame

// Result is the outcome of a match, from the perspective of no particular
// player -- callers interpret it alongside Player2Turn/Turn.
type Result int

const (
	Playing Result = iota
	P1Win
	P2Win
	Timeout
)

func (r Result) String() string {
	switch r {
	case Playing:
		return "playing"
	case P1Win:
		return "p1_win"
	case P2Win:
		return "p2_win"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Adapter is the external collaborator a self-play worker or tournament
// engine trains against. Game-rule specifics -- cards, mana, win
// conditions -- are entirely owned by the implementation; the CORE only
// ever sees encoded features and action indices.
//
// Advance must clamp an out-of-range actionIndex to the pass action (index
// 0) rather than error: action indices come from argmax/exploration over a
// model output sized to the current hand, and a stale index after the hand
// shrinks is an expected, not exceptional, occurrence.
type Adapter interface {
	// Init resets to a fresh deterministic start state. Randomness, if any,
	// is the adapter's own concern (e.g. a seeded RNG field).
	Init()

	// Encode fills enc with the current state's features and hand counts.
	Encode(enc *Encoded)

	// Advance plays actionIndex (0 = pass, i = play own-hand card i-1).
	Advance(actionIndex int)

	// Result reports the match outcome.
	Result() Result

	// Player2Turn reports which player is to move.
	Player2Turn() bool

	// Turn is the number of actions played so far.
	Turn() int
}
