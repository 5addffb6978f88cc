package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ProcessConfig is the outward-facing, file-based half of configuration:
// the knobs that describe where the process lives and talks, as opposed to
// the solver-internal tuning in TrainingConfig/TournamentConfig/
// WorkerConfig. Grounded on internal/server/config.go's HCL shape.
type ProcessConfig struct {
	Process ProcessSettings `hcl:"process,block"`
	Model   ModelSettings   `hcl:"model,block"`
}

// ProcessSettings holds the listen address for the optional telemetry
// server, the checkpoint directory, and the worker pool size.
type ProcessSettings struct {
	TelemetryAddr string `hcl:"telemetry_addr,optional"`
	CheckpointDir string `hcl:"checkpoint_dir,optional"`
	Workers       int    `hcl:"workers,optional"`
	LogLevel      string `hcl:"log_level,optional"`
}

// ModelSettings names which of the three size presets new models use.
type ModelSettings struct {
	Dims string `hcl:"dims,optional"` // "default" | "medium" | "small"
}

// DefaultProcessConfig returns the configuration used when no file is
// present.
func DefaultProcessConfig() *ProcessConfig {
	return &ProcessConfig{
		Process: ProcessSettings{
			TelemetryAddr: "localhost:8090",
			CheckpointDir: "checkpoints",
			Workers:       4,
			LogLevel:      "info",
		},
		Model: ModelSettings{Dims: "default"},
	}
}

// LoadProcessConfig loads the process configuration from an HCL file,
// falling back to DefaultProcessConfig if filename doesn't exist.
func LoadProcessConfig(filename string) (*ProcessConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultProcessConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: parse %s: %s", filename, diags.Error())
	}

	var cfg ProcessConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("config: decode %s: %s", filename, diags.Error())
	}

	if cfg.Process.TelemetryAddr == "" {
		cfg.Process.TelemetryAddr = "localhost:8090"
	}
	if cfg.Process.CheckpointDir == "" {
		cfg.Process.CheckpointDir = "checkpoints"
	}
	if cfg.Process.Workers == 0 {
		cfg.Process.Workers = 4
	}
	if cfg.Process.LogLevel == "" {
		cfg.Process.LogLevel = "info"
	}
	if cfg.Model.Dims == "" {
		cfg.Model.Dims = "default"
	}

	return &cfg, nil
}

// Validate checks the process configuration is usable.
func (c *ProcessConfig) Validate() error {
	if c.Process.Workers <= 0 {
		return fmt.Errorf("config: workers must be > 0")
	}
	if c.Process.CheckpointDir == "" {
		return fmt.Errorf("config: checkpoint_dir must be set")
	}
	switch c.Model.Dims {
	case "default", "medium", "small":
	default:
		return fmt.Errorf("config: unknown model dims %q", c.Model.Dims)
	}
	return nil
}
