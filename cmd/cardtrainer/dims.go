package main

import (
	"fmt"

	"github.com/lox/cardselfplay/internal/nn"
)

// parseDims resolves one of the three model-size presets by name, matching
// internal/config's ProcessConfig.Model.Dims vocabulary.
func parseDims(name string) (nn.Dims, error) {
	switch name {
	case "", "default":
		return nn.DefaultDims(), nil
	case "medium":
		return nn.MediumDims(), nil
	case "small":
		return nn.SmallDims(), nil
	default:
		return nn.Dims{}, fmt.Errorf("unknown dims preset %q (want default|medium|small)", name)
	}
}
