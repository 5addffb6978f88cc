package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime/pprof"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog/log"

	"github.com/lox/cardselfplay/internal/cardgame"
	"github.com/lox/cardselfplay/internal/config"
	"github.com/lox/cardselfplay/internal/coregame"
	"github.com/lox/cardselfplay/internal/nn"
	"github.com/lox/cardselfplay/internal/persist"
	"github.com/lox/cardselfplay/internal/selfplay"
	"github.com/lox/cardselfplay/internal/telemetry"
	"github.com/lox/cardselfplay/internal/tournament"
)

// TrainCmd launches a self-play worker pool and a background tournament,
// checkpointing the fittest tournament model periodically until Iterations
// trials or Deadline elapses (whichever is reached first; zero means
// unbounded).
type TrainCmd struct {
	ConfigFile string `help:"HCL process config file" type:"path"`
	Dims       string `help:"model size preset (default|medium|small); overrides the config file" enum:",default,medium,small" default:""`

	Workers         int           `help:"worker pool size; overrides the config file" default:"0"`
	LearnRate       float64       `help:"worker learn rate; 0 uses the config default" default:"0"`
	Seed            int64         `help:"base worker random seed" default:"1"`
	Iterations      int64         `help:"stop after this many total trials across the pool (0 = unbounded)" default:"0"`
	Deadline        time.Duration `help:"stop after this wall-clock duration (0 = unbounded)"`
	CheckpointEvery time.Duration `help:"wall-clock interval between checkpoints (0 disables)" default:"1m"`
	TournamentSize  int           `help:"tournament population target" default:"0"`
	TelemetryEvery  time.Duration `help:"wall-clock interval between telemetry pushes" default:"1s"`
	ResumeFrom      string        `help:"resume the starting model from a checkpoint"`
	CPUProfile      string        `help:"write CPU profile to file"`
}

func (cmd *TrainCmd) Run(ctx context.Context) error {
	procCfg, err := config.LoadProcessConfig(cmd.ConfigFile)
	if err != nil {
		return fmt.Errorf("load process config: %w", err)
	}

	dimsName := procCfg.Model.Dims
	if cmd.Dims != "" {
		dimsName = cmd.Dims
	}
	dims, err := parseDims(dimsName)
	if err != nil {
		return err
	}

	train := config.DefaultTraining()
	if cmd.Workers > 0 {
		train.Workers = cmd.Workers
	} else if procCfg.Process.Workers > 0 {
		train.Workers = procCfg.Process.Workers
	}
	if cmd.LearnRate > 0 {
		train.Worker.LearnRate = float32(cmd.LearnRate)
	}
	train.Worker.Seed = cmd.Seed
	train.Iterations = cmd.Iterations
	train.Deadline = cmd.Deadline
	train.CheckpointEvery = cmd.CheckpointEvery
	train.CheckpointDir = procCfg.Process.CheckpointDir
	if err := train.Validate(); err != nil {
		return fmt.Errorf("training config: %w", err)
	}

	tourneyCfg := config.DefaultTournament()
	if cmd.TournamentSize > 0 {
		tourneyCfg.Target = cmd.TournamentSize
	}
	tourneyCfg.TelemetryEvery = cmd.TelemetryEvery
	if err := tourneyCfg.Validate(); err != nil {
		return fmt.Errorf("tournament config: %w", err)
	}

	if cmd.CPUProfile != "" {
		f, err := os.Create(cmd.CPUProfile)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", cmd.CPUProfile).Msg("CPU profiling enabled")
	}

	model, generation, err := loadOrInitModel(cmd.ResumeFrom, dims)
	if err != nil {
		return err
	}

	pool := selfplay.NewPool(train.Workers, cardgameAdapter, cardgame.NewEncoded, model, train.Worker.LearnRate, train.Worker.Seed)
	engine := tournament.NewEngine(cardgameAdapter, cardgame.NewEncoded, tourneyCfg.Target)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if train.Deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, train.Deadline)
		defer cancel()
	}

	poolDone := make(chan error, 1)
	go func() { poolDone <- pool.Start(runCtx) }()
	engine.Start()

	clock := quartz.NewReal()

	if procCfg.Process.TelemetryAddr != "" {
		srv := telemetry.NewServer(pool, engine, tourneyCfg.TelemetryEvery)
		httpSrv := &http.Server{Addr: procCfg.Process.TelemetryAddr, Handler: srv}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("telemetry server stopped")
			}
		}()
		go srv.Run(runCtx)
		defer httpSrv.Close()
	}

	go pool.RunOnTick(runCtx, clock, publishInterval, func() {
		for _, snap := range pool.Snapshots() {
			engine.AddWorkerSnapshot(snap)
		}
	})

	if train.CheckpointEvery > 0 {
		go engine.RunOnTick(runCtx, clock, train.CheckpointEvery, func(matrix [][]tournament.WinStats, n int) {
			if n == 0 {
				return
			}
			best := bestIndex(matrix, n)
			snaps := pool.Snapshots()
			if best >= len(snaps) {
				return
			}
			doc := persist.EncodeModel(snaps[best], "cardtrainer", generation)
			generation++
			path := fmt.Sprintf("%s/checkpoint.json", train.CheckpointDir)
			if err := persist.Save(path, doc); err != nil {
				log.Error().Err(err).Msg("checkpoint save failed")
				return
			}
			log.Info().Str("path", path).Int("generation", doc.Generation).Msg("checkpoint saved")
		})
	}

	waitForStop(runCtx, pool, train.Iterations)
	engine.Stop()
	pool.Stop()
	<-poolDone

	log.Info().Int64("trials", totalTrials(pool)).Msg("training run complete")
	return nil
}

const publishInterval = 30 * time.Second

func cardgameAdapter() coregame.Adapter { return cardgame.New(time.Now().UnixNano()) }

func loadOrInitModel(resumeFrom string, dims nn.Dims) (*nn.Model, int, error) {
	if resumeFrom == "" {
		return nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize), 0, nil
	}
	doc, err := persist.Load(resumeFrom)
	if err != nil {
		return nil, 0, fmt.Errorf("resume from %s: %w", resumeFrom, err)
	}
	model, err := persist.DecodeModel(doc)
	if err != nil {
		return nil, 0, fmt.Errorf("resume from %s: %w", resumeFrom, err)
	}
	log.Info().Str("path", resumeFrom).Int("generation", doc.Generation).Msg("resumed from checkpoint")
	return model, doc.Generation, nil
}

func bestIndex(matrix [][]tournament.WinStats, n int) int {
	best, bestRate := 0, -1.0
	for i := 0; i < n; i++ {
		if r := tournament.WinRate(matrix, i); r > bestRate {
			best, bestRate = i, r
		}
	}
	return best
}

func totalTrials(pool *selfplay.Pool) int64 {
	var total int64
	for i := 0; i < pool.Len(); i++ {
		total += pool.Worker(i).Trials()
	}
	return total
}

func waitForStop(ctx context.Context, pool *selfplay.Pool, iterations int64) {
	if iterations <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if totalTrials(pool) >= iterations {
				return
			}
		}
	}
}
