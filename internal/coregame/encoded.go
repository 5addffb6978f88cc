// Package coregame defines the adapter contract a card game must satisfy to
// be trained against: a flat feature encoding plus the handful of
// operations the self-play worker and tournament engine need to drive a
// match.
package coregame

import (
	"fmt"

	"github.com/lox/cardselfplay/internal/numeric"
)

// Encoded is a flat feature buffer laid out as
// [board features][own-hand cards, concatenated][opp-hand cards, concatenated].
// Card slots beyond the adapter's current hand sizes are allocated but
// unused; MeCards/YouCards record how many are live.
type Encoded struct {
	data numeric.Vec

	boardSize int
	cardSize  int
	maxMe     int
	maxYou    int

	MeCards  int
	YouCards int
}

// NewEncoded allocates a buffer sized for an adapter whose board feature
// width is boardSize, whose per-card feature width is cardSize, and whose
// hands never exceed maxMeCards/maxYouCards cards.
func NewEncoded(boardSize, cardSize, maxMeCards, maxYouCards int) *Encoded {
	return &Encoded{
		data:      numeric.NewVec(boardSize + (maxMeCards+maxYouCards)*cardSize),
		boardSize: boardSize,
		cardSize:  cardSize,
		maxMe:     maxMeCards,
		maxYou:    maxYouCards,
	}
}

// Board returns the shared board-feature view.
func (e *Encoded) Board() numeric.Slice { return e.data.Slice().Sub(0, e.boardSize) }

// MeCard returns the feature view for own-hand card i.
func (e *Encoded) MeCard(i int) numeric.Slice {
	if i < 0 || i >= e.maxMe {
		panic(fmt.Sprintf("game: me_card index %d out of range [0,%d)", i, e.maxMe))
	}
	offset := e.boardSize + i*e.cardSize
	return e.data.Slice().Sub(offset, e.cardSize)
}

// YouCard returns the feature view for opponent-hand card i.
func (e *Encoded) YouCard(i int) numeric.Slice {
	if i < 0 || i >= e.maxYou {
		panic(fmt.Sprintf("game: you_card index %d out of range [0,%d)", i, e.maxYou))
	}
	offset := e.boardSize + e.maxMe*e.cardSize + i*e.cardSize
	return e.data.Slice().Sub(offset, e.cardSize)
}

// MeCardsIn returns the contiguous block covering all live own-hand cards,
// for adapters that prefer to encode a hand in one pass.
func (e *Encoded) MeCardsIn() numeric.Slice {
	return e.data.Slice().Sub(e.boardSize, e.MeCards*e.cardSize)
}

// YouCardsIn returns the contiguous block covering all live opponent-hand
// cards.
func (e *Encoded) YouCardsIn() numeric.Slice {
	return e.data.Slice().Sub(e.boardSize+e.maxMe*e.cardSize, e.YouCards*e.cardSize)
}

// AvailActions is the number of legal actions at the current state: one
// pass action plus one per live own-hand card.
func (e *Encoded) AvailActions() int { return e.MeCards + 1 }

// BoardSize is the board feature width this buffer was sized for.
func (e *Encoded) BoardSize() int { return e.boardSize }

// CardSize is the per-card feature width this buffer was sized for.
func (e *Encoded) CardSize() int { return e.cardSize }
