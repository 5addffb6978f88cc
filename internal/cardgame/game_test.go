package cardgame

import (
	"testing"

	"github.com/lox/cardselfplay/internal/coregame"
)

func TestGameInitStartingState(t *testing.T) {
	g := New(1)
	g.Init()

	if g.P1.Health != 20 || g.P2.Health != 20 {
		t.Fatalf("health = %d/%d, want 20/20", g.P1.Health, g.P2.Health)
	}
	if g.P1.Cards() != 3 {
		t.Fatalf("p1 cards = %d, want 3", g.P1.Cards())
	}
	if g.P2.Cards() != 5 {
		t.Fatalf("p2 cards = %d, want 5", g.P2.Cards())
	}
	if g.Player2Turn() {
		t.Fatal("expected p1 to move first")
	}
	if g.Turn() != 0 {
		t.Fatalf("turn = %d, want 0", g.Turn())
	}
}

func TestGameEncodeShapes(t *testing.T) {
	g := New(2)
	g.Init()
	enc := NewEncoded()
	g.Encode(enc)

	if enc.MeCards != 3 {
		t.Fatalf("me_cards = %d, want 3", enc.MeCards)
	}
	if enc.YouCards != 5 {
		t.Fatalf("you_cards = %d, want 5", enc.YouCards)
	}
	if len(enc.Board()) != BoardSize {
		t.Fatalf("board length = %d, want %d", len(enc.Board()), BoardSize)
	}
	if len(enc.MeCard(0)) != CardSize {
		t.Fatalf("me_card(0) length = %d, want %d", len(enc.MeCard(0)), CardSize)
	}
}

func TestGamePassAlternatesMover(t *testing.T) {
	g := New(3)
	g.Init()

	if g.Player2Turn() {
		t.Fatal("p1 should move first")
	}
	g.Advance(0)
	if !g.Player2Turn() {
		t.Fatal("expected p2 to move after p1 passes")
	}
	if g.Turn() != 1 {
		t.Fatalf("turn = %d, want 1", g.Turn())
	}
}

func TestGameOutOfRangeActionClampsToPass(t *testing.T) {
	g := New(4)
	g.Init()
	before := g.P1.Cards()

	g.Advance(999)

	// a clamped pass still discards nothing and draws nothing; only the
	// mover and turn counter change.
	if g.P1.Cards() != before {
		t.Fatalf("p1 cards changed on clamped pass: %d -> %d", before, g.P1.Cards())
	}
	if !g.Player2Turn() {
		t.Fatal("expected mover to switch even on a clamped pass")
	}
}

func TestGameTimeoutAfterMaxTurn(t *testing.T) {
	g := New(5)
	g.Init()
	for g.Turn() <= maxTurn && g.Result() == coregame.Playing {
		g.Advance(0)
	}
	if g.Result() != coregame.Timeout {
		t.Fatalf("result = %v, want timeout", g.Result())
	}
}

func TestGameDirectDamageReducesHealth(t *testing.T) {
	g := New(6)
	g.Init()
	g.P1.Mana = 10
	g.P1.Avail[0] = Card{Type: Direct, Value: 5}
	before := g.P2.Health

	g.Advance(1)

	if g.P2.Health != before-5 {
		t.Fatalf("p2 health = %d, want %d", g.P2.Health, before-5)
	}
}

func TestGameDirectImmuneBlocksDamage(t *testing.T) {
	g := New(7)
	g.Init()
	g.P1.Mana = 10
	g.P1.Avail[0] = Card{Type: Direct, Value: 5}
	g.P2.Artifact = DirectImmune
	before := g.P2.Health

	g.Advance(1)

	if g.P2.Health != before {
		t.Fatalf("p2 health = %d, want unchanged at %d (DirectImmune)", g.P2.Health, before)
	}
}

func TestGameLandIncreasesMana(t *testing.T) {
	g := New(8)
	g.Init()
	g.P1.Avail[0] = Card{Type: Land, Value: 10}
	before := g.P1.Mana

	g.Advance(1)

	if g.P1.Mana != before+1 {
		t.Fatalf("p1 mana = %d, want %d", g.P1.Mana, before+1)
	}
}

func TestGameDraw3GrowsHand(t *testing.T) {
	g := New(9)
	g.Init()
	g.P1.Avail[0] = Card{Type: Draw3}
	before := g.P1.Cards()

	g.Advance(1)

	// one card discarded, three drawn: net +2.
	if g.P1.Cards() != before+2 {
		t.Fatalf("p1 cards = %d, want %d", g.P1.Cards(), before+2)
	}
}

func TestGameArtifactEquips(t *testing.T) {
	g := New(10)
	g.Init()
	g.P1.Avail[0] = Card{Type: Artifact, Artifact: CreatureImmune}

	g.Advance(1)

	if g.P1.Artifact != CreatureImmune {
		t.Fatalf("p1 artifact = %v, want CreatureImmune", g.P1.Artifact)
	}
}

func TestGameHandNeverExceedsMaxHand(t *testing.T) {
	g := New(11)
	g.Init()
	for i := 0; i < MaxHand+5; i++ {
		if !g.Player2Turn() {
			g.P1.Avail[0] = Card{Type: Draw3}
			g.Advance(1)
		} else {
			g.Advance(0)
		}
		if g.P1.Cards() > MaxHand {
			t.Fatalf("p1 hand size %d exceeds MaxHand %d", g.P1.Cards(), MaxHand)
		}
	}
}
