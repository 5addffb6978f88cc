package cardgame

import "github.com/lox/cardselfplay/internal/cardcodec"

// cardUniverse lists every distinct card template this game can ever
// produce: one Creature/Direct/Heal template per possible cost, one Land,
// one Draw3, and one per ArtifactType.
func cardUniverse() []cardcodec.Card {
	u := make([]cardcodec.Card, 0, 3*maxCardValue+2+int(artifactTypeCount))
	for _, t := range []CardType{Creature, Direct, Heal} {
		for v := 1; v <= maxCardValue; v++ {
			u = append(u, cardcodec.Card{Type: int(t), Value: v})
		}
	}
	u = append(u, cardcodec.Card{Type: int(Land), Value: landMana})
	u = append(u, cardcodec.Card{Type: int(Draw3), Value: 0})
	for a := 0; a < int(artifactTypeCount); a++ {
		u = append(u, cardcodec.Card{Type: int(Artifact), Value: a})
	}
	return u
}

var codec = mustNewCodec(cardUniverse())

func mustNewCodec(universe []cardcodec.Card) *cardcodec.Codec {
	c, err := cardcodec.New(universe)
	if err != nil {
		panic(err)
	}
	return c
}

// encodedCardSize is the one-hot width of a single card, derived from the
// card template universe's perfect-hash slot count.
var encodedCardSize = codec.Width()
