package cardgame

import (
	"math/rand/v2"

	"github.com/lox/cardselfplay/internal/numeric"
)

// playerEncodedSize is health, mana, creature, a has-artifact flag, plus a
// one-hot over ArtifactType.
const playerEncodedSize = 4 + int(artifactTypeCount)

// Player is one side's health/mana/board-state plus its hand of cards.
type Player struct {
	Health   int
	Mana     int
	Creature int
	Artifact ArtifactType
	Avail    []Card
}

// Cards is the number of cards currently in hand.
func (p *Player) Cards() int { return len(p.Avail) }

// Init resets p to a fresh starting state: p1 opens with a smaller hand
// since it moves first.
func (p *Player) Init(p1 bool, rng *rand.Rand) {
	*p = Player{Health: 20, Mana: 1, Creature: 0, Artifact: NoArtifact}
	n := 5
	if p1 {
		n = 3
	}
	p.Avail = make([]Card, n)
	for i := range p.Avail {
		p.Avail[i].Randomize(rng)
	}
}

// Encode writes p's board-state features into x (length playerEncodedSize).
func (p *Player) Encode(x numeric.Slice) {
	x.Fill(0)
	x[0] = float32(p.Health) / 10.0
	x[1] = float32(p.Mana) / 10.0
	x[2] = float32(p.Creature) / 10.0
	if p.Artifact != NoArtifact {
		x[3] = 1
		x[4+int(p.Artifact)] = 1
	}
}

// EncodeCards writes one encodedCardSize block per card in Avail into x.
func (p *Player) EncodeCards(x numeric.Slice) {
	for i := range p.Avail {
		c := x.Sub(i*encodedCardSize, encodedCardSize)
		p.Avail[i].Encode(c)
	}
}
