package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsValidate(t *testing.T) {
	assert.NoError(t, DefaultWorker().Validate())
	assert.NoError(t, DefaultTraining().Validate())
	assert.NoError(t, DefaultTournament().Validate())
	assert.NoError(t, DefaultProcessConfig().Validate())
}

func TestWorkerConfigRejectsNonPositiveLearnRate(t *testing.T) {
	c := WorkerConfig{LearnRate: 0}
	assert.ErrorContains(t, c.Validate(), "learn rate")
}

func TestTrainingConfigRejectsZeroWorkers(t *testing.T) {
	c := DefaultTraining()
	c.Workers = 0
	assert.ErrorContains(t, c.Validate(), "workers")
}

func TestTrainingConfigRejectsNegativeCheckpointInterval(t *testing.T) {
	c := DefaultTraining()
	c.CheckpointEvery = -time.Second
	assert.ErrorContains(t, c.Validate(), "checkpoint interval")
}

func TestTrainingConfigRejectsEmptyCheckpointDir(t *testing.T) {
	c := DefaultTraining()
	c.CheckpointDir = ""
	assert.ErrorContains(t, c.Validate(), "checkpoint dir")
}

func TestTournamentConfigRejectsNegativeTarget(t *testing.T) {
	c := TournamentConfig{Target: -1}
	assert.ErrorContains(t, c.Validate(), "target")
}

func TestProcessConfigRejectsUnknownDims(t *testing.T) {
	c := DefaultProcessConfig()
	c.Model.Dims = "huge"
	assert.ErrorContains(t, c.Validate(), "dims")
}

func TestLoadProcessConfigFallsBackWhenFileMissing(t *testing.T) {
	cfg, err := LoadProcessConfig("/nonexistent/path/does-not-exist.hcl")
	assert.NoError(t, err)
	assert.Equal(t, DefaultProcessConfig(), cfg)
}
