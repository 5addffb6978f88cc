// Package persist serializes and restores trained models as a structured
// document tree: a top-level Model document wrapping Layer and RELULayers
// (Stack) documents.
package persist

import (
	"fmt"

	"github.com/lox/cardselfplay/internal/nn"
)

const (
	typeModel      = "Model"
	typeLayer      = "Layer"
	typeReluLayers = "RELULayers"
)

// ModelDocument is the root of a persisted model: its name, generation, and
// the six sub-networks making up an nn.Model.
type ModelDocument struct {
	Type         string         `json:"type"`
	Name         string         `json:"name"`
	Generation   int            `json:"generation"`
	CardOutWidth int            `json:"card_out_width"`
	Board        *StackDocument `json:"b"`
	Trunk        *StackDocument `json:"l"`
	Pass         *LayerDocument `json:"p"`
	CardIn       *StackDocument `json:"in"`
	YouCardIn    *StackDocument `json:"you_in"`
	CardOut      *StackDocument `json:"out"`
}

// LayerDocument persists one nn.Layer's full state: its raw W/G1/G2/delta
// buffer plus the shape needed to reinterpret it.
type LayerDocument struct {
	Type   string    `json:"type"`
	Data   []float32 `json:"data"`
	Deltas int       `json:"deltas"`
	Input  int       `json:"input"`
	Output int       `json:"output"`
	MinIO  int       `json:"min_io"`
}

// StackDocument persists one nn.Stack as its ordered layer documents.
type StackDocument struct {
	Type      string           `json:"type"`
	InnerSize int              `json:"inner_size"`
	Data      []*LayerDocument `json:"data"`
}

// EncodeLayer builds a LayerDocument from l.
func EncodeLayer(l *nn.Layer) *LayerDocument {
	raw := l.RawData()
	data := make([]float32, len(raw))
	copy(data, raw)
	return &LayerDocument{
		Type:   typeLayer,
		Data:   data,
		Deltas: l.DeltaCount(),
		Input:  l.InSize() + 1, // bias-inclusive, matches NewLayerFromData's inWidth
		Output: l.OutSize(),
		MinIO:  l.MinIO(),
	}
}

// DecodeLayer rebuilds an nn.Layer from doc.
func DecodeLayer(doc *LayerDocument) (*nn.Layer, error) {
	if doc.Type != typeLayer {
		return nil, fmt.Errorf("persist: expected type %q, got %q", typeLayer, doc.Type)
	}
	return nn.NewLayerFromData(doc.Input, doc.Output, doc.MinIO, doc.Deltas, doc.Data), nil
}

// EncodeStack builds a StackDocument from s.
func EncodeStack(s *nn.Stack) *StackDocument {
	layers := s.Layers()
	doc := &StackDocument{
		Type:      typeReluLayers,
		InnerSize: s.InnerSize(),
		Data:      make([]*LayerDocument, len(layers)),
	}
	for i, l := range layers {
		doc.Data[i] = EncodeLayer(l)
	}
	return doc
}

// DecodeStack rebuilds an nn.Stack from doc.
func DecodeStack(doc *StackDocument) (*nn.Stack, error) {
	if doc.Type != typeReluLayers {
		return nil, fmt.Errorf("persist: expected type %q, got %q", typeReluLayers, doc.Type)
	}
	if len(doc.Data) == 0 {
		return nil, fmt.Errorf("persist: stack document has no layers")
	}
	layers := make([]*nn.Layer, len(doc.Data))
	for i, ld := range doc.Data {
		l, err := DecodeLayer(ld)
		if err != nil {
			return nil, fmt.Errorf("persist: stack layer %d: %w", i, err)
		}
		layers[i] = l
	}
	return nn.NewStackFromLayers(layers), nil
}

// EncodeModel builds a ModelDocument from m, tagging it with name and
// generation.
func EncodeModel(m *nn.Model, name string, generation int) *ModelDocument {
	return &ModelDocument{
		Type:         typeModel,
		Name:         name,
		Generation:   generation,
		CardOutWidth: m.Dims().CardOutWidth,
		Board:        EncodeStack(m.Board),
		Trunk:        EncodeStack(m.Trunk),
		Pass:         EncodeLayer(m.Pass),
		CardIn:       EncodeStack(m.CardIn),
		YouCardIn:    EncodeStack(m.YouCardIn),
		CardOut:      EncodeStack(m.CardOut),
	}
}

// DecodeModel rebuilds an nn.Model from doc. Only the three output widths of
// Dims are restored: BoardOutWidth and TrunkOutWidth from the decoded
// stacks, CardOutWidth from the document's card_out_width field. The
// hidden-layer width lists are left empty.
func DecodeModel(doc *ModelDocument) (*nn.Model, error) {
	if doc.Type != typeModel {
		return nil, fmt.Errorf("persist: expected type %q, got %q", typeModel, doc.Type)
	}

	board, err := DecodeStack(doc.Board)
	if err != nil {
		return nil, fmt.Errorf("persist: board: %w", err)
	}
	trunk, err := DecodeStack(doc.Trunk)
	if err != nil {
		return nil, fmt.Errorf("persist: trunk: %w", err)
	}
	cardIn, err := DecodeStack(doc.CardIn)
	if err != nil {
		return nil, fmt.Errorf("persist: card_in: %w", err)
	}
	youCardIn, err := DecodeStack(doc.YouCardIn)
	if err != nil {
		return nil, fmt.Errorf("persist: you_card_in: %w", err)
	}
	cardOut, err := DecodeStack(doc.CardOut)
	if err != nil {
		return nil, fmt.Errorf("persist: card_out: %w", err)
	}
	pass, err := DecodeLayer(doc.Pass)
	if err != nil {
		return nil, fmt.Errorf("persist: pass: %w", err)
	}

	dims := nn.Dims{
		BoardOutWidth: board.OutSize(),
		CardOutWidth:  doc.CardOutWidth,
		TrunkOutWidth: trunk.OutSize(),
	}
	return nn.FromParts(dims, board, cardIn, youCardIn, trunk, pass, cardOut), nil
}
