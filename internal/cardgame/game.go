package cardgame

import (
	"fmt"
	"math/rand/v2"

	"github.com/lox/cardselfplay/internal/coregame"
)

// BoardSize is the width of Game's board-feature block: a turn counter, a
// mover flag, and both players' encoded state.
const BoardSize = 2 + playerEncodedSize*2

// CardSize is the width of one hand card's encoded block.
var CardSize = encodedCardSize

// MaxHand bounds how large a hand can grow; Draw3 stops replenishing once a
// hand reaches this size rather than growing without limit.
const MaxHand = 10

// maxTurn is the turn number past which a match is declared a timeout.
const maxTurn = 30

// Game is the bundled reference adapter: a health/mana/hand-of-cards duel.
// It implements coregame.Adapter.
type Game struct {
	P1, P2 Player

	player2Turn bool
	turn        int

	rng *rand.Rand
}

var _ coregame.Adapter = (*Game)(nil)

// NewEncoded allocates a coregame.Encoded sized for Game: hands never exceed
// MaxHand cards on either side.
func NewEncoded() *coregame.Encoded {
	return coregame.NewEncoded(BoardSize, CardSize, MaxHand, MaxHand)
}

// New builds a Game whose randomness is seeded from seed.
func New(seed int64) *Game {
	return &Game{rng: randSource(seed)}
}

func randSource(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Init resets the game to a fresh start: p1 opens with 3 cards, p2 with 5,
// to offset p1's first-move advantage.
func (g *Game) Init() {
	g.P1.Init(true, g.rng)
	g.P2.Init(false, g.rng)
	g.player2Turn = false
	g.turn = 0
}

// Player2Turn reports whether p2 is to move.
func (g *Game) Player2Turn() bool { return g.player2Turn }

// Turn is the number of actions played so far.
func (g *Game) Turn() int { return g.turn }

func (g *Game) curPlayer() (me, you *Player) {
	if g.player2Turn {
		return &g.P2, &g.P1
	}
	return &g.P1, &g.P2
}

// Encode fills enc with the mover-relative view of the board: enc.MeCard
// refers to the player to move, enc.YouCard to their opponent.
func (g *Game) Encode(enc *coregame.Encoded) {
	board := enc.Board()
	board[0] = float32(g.turn) / float32(maxTurn)
	if g.player2Turn {
		board[1] = 1
	} else {
		board[1] = 0
	}
	me, you := g.curPlayer()
	me.Encode(board.Sub(2, playerEncodedSize))
	you.Encode(board.Sub(2+playerEncodedSize, playerEncodedSize))

	enc.MeCards = me.Cards()
	enc.YouCards = you.Cards()
	me.EncodeCards(enc.MeCardsIn())
	you.EncodeCards(enc.YouCardsIn())
}

// Advance plays actionIndex (0 = pass, i = play own-hand card i-1) for the
// player to move, then switches the mover and advances the turn counter.
// An out-of-range actionIndex clamps to pass, per coregame.Adapter's contract.
func (g *Game) Advance(actionIndex int) {
	me, you := g.curPlayer()

	if actionIndex < 0 || actionIndex > me.Cards() {
		actionIndex = 0
	}

	if actionIndex > 0 {
		card := me.Avail[actionIndex-1]
		g.resolve(me, you, card)
		me.Avail = append(me.Avail[:actionIndex-1], me.Avail[actionIndex:]...)
		g.replenish(me, card.Type == Draw3)
	}

	if you.Artifact != CreatureImmune && me.Creature > 0 {
		you.Health -= me.Creature
	}

	g.player2Turn = !g.player2Turn
	g.turn++
}

// resolve applies the effect of playing card, with me as the mover and you
// as the defender. Creature/Direct/Heal cards that cost more mana than me
// has instead just bank mana, matching the teacher-analogue original's
// "too expensive, land it" fallback.
func (g *Game) resolve(me, you *Player, card Card) {
	switch card.Type {
	case Land:
		switch {
		case me.Artifact == LandCauseDamage:
			if you.Artifact != DirectImmune {
				you.Health -= 2
			}
		case me.Artifact == DoubleMana:
			me.Mana += 2
		default:
			me.Mana++
		}
	case Draw3:
		// handled entirely by replenish; playing it costs nothing.
	case Artifact:
		me.Artifact = card.Artifact
	case Creature:
		if me.Mana >= card.Value {
			me.Creature = max(me.Creature, card.Value)
		} else {
			me.Mana++
		}
	case Direct:
		if me.Mana >= card.Value {
			if you.Artifact != DirectImmune {
				you.Health -= card.Value
			}
		} else {
			me.Mana++
		}
	case Heal:
		if me.Mana >= card.Value {
			if me.Artifact == HealCauseDamage {
				if you.Artifact != DirectImmune {
					you.Health -= card.Value
				}
			} else {
				me.Health += card.Value
			}
		} else {
			me.Mana++
		}
	}
}

// replenish draws a replacement card (or three, for Draw3) into me's hand,
// stopping once MaxHand is reached.
func (g *Game) replenish(me *Player, draw3 bool) {
	n := 1
	if draw3 {
		n = 3
	}
	for i := 0; i < n && len(me.Avail) < MaxHand; i++ {
		var c Card
		c.Randomize(g.rng)
		me.Avail = append(me.Avail, c)
	}
}

// Result reports the match outcome.
func (g *Game) Result() coregame.Result {
	switch {
	case g.P1.Health <= 0:
		return coregame.P2Win
	case g.P2.Health <= 0:
		return coregame.P1Win
	case g.turn > maxTurn:
		return coregame.Timeout
	default:
		return coregame.Playing
	}
}

// String renders a one-line debug view of the current state.
func (g *Game) String() string {
	mover := "P1"
	if g.player2Turn {
		mover = "P2"
	}
	return fmt.Sprintf("turn %d (%s to move): P1[hp=%d mana=%d atk=%d cards=%d] P2[hp=%d mana=%d atk=%d cards=%d]",
		g.turn, mover,
		g.P1.Health, g.P1.Mana, g.P1.Creature, g.P1.Cards(),
		g.P2.Health, g.P2.Mana, g.P2.Creature, g.P2.Cards())
}
