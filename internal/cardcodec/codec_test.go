package cardcodec

import "testing"

func TestCodecAssignsDistinctSlots(t *testing.T) {
	universe := []Card{
		{Type: 0, Value: 1},
		{Type: 0, Value: 2},
		{Type: 1, Value: 1},
		{Type: 3, Value: 10},
	}
	c, err := New(universe)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Width() != len(universe) {
		t.Fatalf("width = %d, want %d", c.Width(), len(universe))
	}

	seen := make(map[int]bool)
	for _, card := range universe {
		slot := c.Slot(card)
		if slot < 0 || slot >= c.Width() {
			t.Fatalf("slot %d out of range [0,%d)", slot, c.Width())
		}
		if seen[slot] {
			t.Fatalf("slot %d assigned to more than one template", slot)
		}
		seen[slot] = true
	}
}

func TestCodecDuplicateTemplateErrors(t *testing.T) {
	_, err := New([]Card{{Type: 0, Value: 1}, {Type: 0, Value: 1}})
	if err == nil {
		t.Fatal("expected error for duplicate template")
	}
}
