package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/lox/cardselfplay/internal/cardgame"
	"github.com/lox/cardselfplay/internal/nn"
	"github.com/lox/cardselfplay/internal/selfplay"
)

// EvalCmd plays a snapshot against a baseline (another snapshot, or a fresh
// untrained model of the Dims preset if Baseline is empty) and reports the
// resulting win rate.
type EvalCmd struct {
	Snapshot string `help:"path to the checkpoint to evaluate" required:""`
	Baseline string `help:"path to the opponent checkpoint; empty uses a fresh untrained model"`
	Dims     string `help:"dims preset for the fresh baseline model, when Baseline is empty" default:"default"`
	Games    int    `help:"number of games to play, split evenly across both sides" default:"1000"`
}

func (cmd *EvalCmd) Run(ctx context.Context) error {
	candidate, _, err := loadOrInitModel(cmd.Snapshot, nn.DefaultDims())
	if err != nil {
		return err
	}

	var baseline *nn.Model
	if cmd.Baseline == "" {
		dims, err := parseDims(cmd.Dims)
		if err != nil {
			return err
		}
		baseline = nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize)
		log.Info().Str("dims", cmd.Dims).Msg("evaluating against a fresh untrained baseline")
	} else {
		baseline, _, err = loadOrInitModel(cmd.Baseline, nn.DefaultDims())
		if err != nil {
			return err
		}
	}

	half := cmd.Games / 2
	p1Wins, p2Wins, ties := selfplay.PlayBatch(candidate, baseline, cardgameAdapter, cardgame.NewEncoded, half)
	p2Losses, p2WinsAsBase, ties2 := selfplay.PlayBatch(baseline, candidate, cardgameAdapter, cardgame.NewEncoded, cmd.Games-half)

	wins := p1Wins + p2WinsAsBase
	losses := p2Wins + p2Losses
	totalTies := ties + ties2
	played := wins + losses + totalTies
	var rate float64
	if played > 0 {
		rate = float64(wins) / float64(played)
	}

	log.Info().
		Int("games", played).
		Int("wins", wins).
		Int("losses", losses).
		Int("ties", totalTies).
		Float64("win_rate", rate).
		Msg("evaluation complete")

	return nil
}
