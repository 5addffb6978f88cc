// Package cardgame is the bundled reference adapter: a small two-player
// creature/spell duel implementing coregame.Adapter. It exists so the rest of
// the CORE has something concrete to train against in examples and tests --
// it is not a rules authority any other package depends on.
package cardgame

import (
	"math/rand/v2"

	"github.com/lox/cardselfplay/internal/cardcodec"
	"github.com/lox/cardselfplay/internal/numeric"
)

// maxCardValue bounds Creature/Direct/Heal costs (1..maxCardValue).
const maxCardValue = 7

// landMana is the fixed mana value rand()-assigned to a Land card.
const landMana = 10

// CardType is the kind of effect a card has when played.
type CardType int

const (
	Creature CardType = iota
	Direct
	Heal
	Land
	Draw3
	Artifact
	cardTypeCount
)

// ArtifactType is the passive effect granted by an equipped Artifact card.
// artifactTypeCount acts as the "no artifact equipped" sentinel.
type ArtifactType int

const (
	DirectImmune ArtifactType = iota
	CreatureImmune
	DoubleMana
	HealCauseDamage
	LandCauseDamage
	artifactTypeCount
)

// NoArtifact is the value of Player.Artifact when no artifact is equipped.
const NoArtifact = artifactTypeCount

// Card is one hand card: either a valued effect (Creature/Direct/Heal/Land)
// or a Draw3, or an Artifact naming the kind it equips.
type Card struct {
	Type     CardType
	Value    int
	Artifact ArtifactType // meaningful only when Type == Artifact
}

// Randomize fills c with a new random card drawn from rng.
func (c *Card) Randomize(rng *rand.Rand) {
	c.Type = CardType(rng.IntN(int(cardTypeCount)))
	switch c.Type {
	case Land:
		c.Value = landMana
	case Draw3:
		c.Value = 0
	case Artifact:
		c.Artifact = ArtifactType(rng.IntN(int(artifactTypeCount)))
	default:
		c.Value = 1 + rng.IntN(maxCardValue)
	}
}

// Encode writes a one-hot feature vector for c into x, which must have
// length encodedCardSize: the slot is c's dense perfect-hash index within
// the fixed universe of every card template the game can produce.
func (c *Card) Encode(x numeric.Slice) {
	x.Fill(0)
	x[codec.Slot(c.codecKey())] = 1
}

func (c *Card) codecKey() cardcodec.Card {
	if c.Type == Artifact {
		return cardcodec.Card{Type: int(Artifact), Value: int(c.Artifact)}
	}
	return cardcodec.Card{Type: int(c.Type), Value: c.Value}
}
