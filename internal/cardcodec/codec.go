// Package cardcodec maps a fixed universe of card templates onto dense
// one-hot slot indices using a compress-hash-displace minimal perfect hash,
// so a game adapter can turn a card's identity into a feature-vector slot
// without a runtime map lookup.
package cardcodec

import (
	"fmt"

	"github.com/opencoff/go-chd"
)

// Card is the minimal identity of a card template: a type discriminator
// plus an associated value (a cost, a fixed grant, or an effect ordinal --
// meaning is entirely up to the caller).
type Card struct {
	Type  int
	Value int
}

func (c Card) key() []byte {
	return []byte{byte(c.Type), byte(c.Value)}
}

// Codec assigns every template in a fixed universe a dense slot in
// [0, Width()).
type Codec struct {
	hash *chd.CHD
	n    int
}

// New builds a Codec over universe, which must list every distinct
// template the caller will ever look up. Duplicate templates are an error.
func New(universe []Card) (*Codec, error) {
	b := chd.NewBuilder()
	seen := make(map[Card]bool, len(universe))
	for _, c := range universe {
		if seen[c] {
			return nil, fmt.Errorf("cardcodec: duplicate template %+v", c)
		}
		seen[c] = true
		if err := b.Add(c.key()); err != nil {
			return nil, fmt.Errorf("cardcodec: add %+v: %w", c, err)
		}
	}
	h, err := b.Freeze(0)
	if err != nil {
		return nil, fmt.Errorf("cardcodec: freeze: %w", err)
	}
	return &Codec{hash: h, n: len(universe)}, nil
}

// Slot returns card's dense slot index. card must be one of the templates
// New was built with; looking up an unknown template returns an arbitrary
// slot rather than an error, since the CHD has no notion of "absent" --
// callers own the closed-universe invariant.
func (c *Codec) Slot(card Card) int {
	return int(c.hash.Find(card.key()))
}

// Width is the one-hot width of this codec's universe.
func (c *Codec) Width() int { return c.n }
