package main

import (
	"context"
	"fmt"

	"github.com/lox/cardselfplay/internal/persist"
)

// InspectCmd loads a persisted checkpoint and prints its topology and
// generation without constructing a trainable nn.Model.
type InspectCmd struct {
	Path string `arg:"" help:"path to the checkpoint file"`
}

func (cmd *InspectCmd) Run(ctx context.Context) error {
	doc, err := persist.Load(cmd.Path)
	if err != nil {
		return err
	}

	fmt.Printf("name:        %s\n", doc.Name)
	fmt.Printf("generation:  %d\n", doc.Generation)
	fmt.Printf("card_out_w:  %d\n", doc.CardOutWidth)
	fmt.Printf("board:       %d layers, inner_size=%d\n", len(doc.Board.Data), doc.Board.InnerSize)
	fmt.Printf("trunk:       %d layers, inner_size=%d\n", len(doc.Trunk.Data), doc.Trunk.InnerSize)
	fmt.Printf("card_in:     %d layers, inner_size=%d\n", len(doc.CardIn.Data), doc.CardIn.InnerSize)
	fmt.Printf("you_card_in: %d layers, inner_size=%d\n", len(doc.YouCardIn.Data), doc.YouCardIn.InnerSize)
	fmt.Printf("card_out:    %d layers, inner_size=%d\n", len(doc.CardOut.Data), doc.CardOut.InnerSize)
	fmt.Printf("pass:        input=%d output=%d\n", doc.Pass.Input, doc.Pass.Output)
	return nil
}
