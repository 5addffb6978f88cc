// Package config holds the plain, validated tuning structs each component
// reads at startup: worker, training, and tournament knobs, grounded on
// sdk/solver/config.go's AbstractionConfig/TrainingConfig pattern (exported
// fields, a Validate() error method, a DefaultX constructor).
package config

import (
	"errors"
	"time"
)

// WorkerConfig tunes a single self-play worker.
type WorkerConfig struct {
	// LearnRate is the initial Adam-variant learn rate applied every 10
	// trials (§4.6 step 4). Typically 1e-4 to 1e-3.
	LearnRate float32

	// Seed drives the worker's exploration and competition-ordering
	// randomness.
	Seed int64
}

// Validate ensures the worker parameters are safe to use.
func (c WorkerConfig) Validate() error {
	if c.LearnRate <= 0 {
		return errors.New("learn rate must be > 0")
	}
	return nil
}

// TrainingConfig aggregates parameters that control one training run: how
// many workers to launch, how long to run, and where to checkpoint.
type TrainingConfig struct {
	// Workers is the self-play pool size.
	Workers int

	// Worker is applied to every pool member (only Seed is offset per
	// worker -- see selfplay.NewPool).
	Worker WorkerConfig

	// CheckpointEvery is the wall-clock interval between autosaves of the
	// best tournament model. Zero disables autosaving.
	CheckpointEvery time.Duration

	// CheckpointDir is where snapshots are written (internal/persist.Save).
	CheckpointDir string

	// Iterations bounds the run by trial count across the pool; zero means
	// run until Deadline (or forever, if Deadline is also zero).
	Iterations int64

	// Deadline bounds the run by wall-clock time; zero means no deadline.
	Deadline time.Duration
}

// Validate ensures the training parameters are safe to use.
func (c TrainingConfig) Validate() error {
	if c.Workers <= 0 {
		return errors.New("workers must be > 0")
	}
	if err := c.Worker.Validate(); err != nil {
		return err
	}
	if c.CheckpointEvery < 0 {
		return errors.New("checkpoint interval cannot be negative")
	}
	if c.CheckpointDir == "" {
		return errors.New("checkpoint dir must be set")
	}
	if c.Iterations < 0 {
		return errors.New("iterations cannot be negative")
	}
	if c.Deadline < 0 {
		return errors.New("deadline cannot be negative")
	}
	return nil
}

// TournamentConfig tunes the background tournament engine.
type TournamentConfig struct {
	// Target is the population size repopulation grows/shrinks toward
	// (spec.md's target_tournament). Zero uses the engine's own default
	// (12).
	Target int

	// TelemetryEvery is the wall-clock interval between telemetry pushes of
	// the tournament's win-rate matrix. Zero disables the periodic push.
	TelemetryEvery time.Duration
}

// Validate ensures the tournament parameters are safe to use.
func (c TournamentConfig) Validate() error {
	if c.Target < 0 {
		return errors.New("target cannot be negative")
	}
	if c.TelemetryEvery < 0 {
		return errors.New("telemetry interval cannot be negative")
	}
	return nil
}

// DefaultWorker returns a conservative worker configuration suitable for
// smoke tests.
func DefaultWorker() WorkerConfig {
	return WorkerConfig{LearnRate: 1e-3, Seed: 1}
}

// DefaultTraining returns a minimal configuration for local experimentation.
func DefaultTraining() TrainingConfig {
	return TrainingConfig{
		Workers:         4,
		Worker:          DefaultWorker(),
		CheckpointEvery: 5 * time.Minute,
		CheckpointDir:   "checkpoints",
	}
}

// DefaultTournament returns the spec's own defaults (target=12, no
// telemetry push).
func DefaultTournament() TournamentConfig {
	return TournamentConfig{Target: 12}
}
