package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forPelevin/segswap/internal/config"
	"github.com/forPelevin/segswap/internal/logger"
	"github.com/forPelevin/segswap/internal/metrics"
	"github.com/forPelevin/segswap/internal/pipeline"
	"github.com/forPelevin/segswap/internal/progress"
	"github.com/forPelevin/segswap/internal/tracing"
	"github.com/forPelevin/segswap/internal/usecase"
)

// session is the per-command runtime: resolved settings plus the logger and
// background services started for this invocation.
type session struct {
	env   *config.Env
	job   config.Job
	log   *zap.Logger
	tools pipeline.Tools
	stop  []func()
}

func (s *session) close() {
	for i := len(s.stop) - 1; i >= 0; i-- {
		s.stop[i]()
	}
}

func start(cmd *cobra.Command) (context.Context, *session, error) {
	env, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	job := config.DefaultJob()
	if path, _ := cmd.Flags().GetString("job"); path != "" {
		if job, err = config.LoadJob(path); err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
	}
	job = job.ApplyEnv(env)

	level := stringFlag(cmd, "log-level", env.LogLevel)
	log, err := logger.New(level)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	s := &session{env: env, job: job, log: log}
	s.stop = append(s.stop, func() { _ = log.Sync() })
	s.tools = pipeline.Tools{
		FFmpegPath:  env.FFmpegPath,
		FFprobePath: env.FFprobePath,
		Logger:      log,
		Progress:    progress.Terminal(),
	}

	if addr := stringFlag(cmd, "metrics-addr", env.MetricsAddr); addr != "" {
		srv := metrics.StartServer(addr, log)
		s.stop = append(s.stop, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		})
	}

	if env.OTLPEndpoint != "" {
		tp, err := tracing.Init(cmd.Context(), env.OTLPEndpoint)
		if err != nil {
			log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		} else {
			s.stop = append(s.stop, func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(ctx)
			})
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn(l10n.T("Interrupted, shutting down..."))
			cancel()
		case <-ctx.Done():
		}
	}()
	s.stop = append(s.stop, func() {
		signal.Stop(sigCh)
		cancel()
	})
	return ctx, s, nil
}

func runVideo(cmd *cobra.Command, args []string) error {
	ctx, s, err := start(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	cfg := s.swapConfig(cmd, args)
	cfg.SegmentFrames = intFlag(cmd, "segment-frames", s.job.SegmentFrames)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	rep, err := pipeline.RunVideo(ctx, cfg)
	if errors.Is(err, usecase.ErrNoSamples) {
		fmt.Fprintln(cmd.OutOrStdout(), l10n.T("Zero samples, exiting"))
		return nil
	}
	if failed := rep.Failed(); failed > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), l10n.F("%d of %d segments failed and were skipped", failed, len(rep.Results)))
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), l10n.F("Done, output file: %s", rep.Merged))
	return nil
}

func runImages(cmd *cobra.Command, args []string) error {
	ctx, s, err := start(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	cfg := s.swapConfig(cmd, args)
	cfg.Images = true
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	out, err := pipeline.RunImages(ctx, cfg)
	if errors.Is(err, usecase.ErrNoSamples) {
		fmt.Fprintln(cmd.OutOrStdout(), l10n.T("Zero samples, exiting"))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), l10n.F("Done, output dir: %s", out))
	return nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	ctx, s, err := start(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	frames, _ := cmd.Flags().GetInt("frames")
	seconds, _ := cmd.Flags().GetFloat64("seconds")
	cfg := pipeline.SplitConfig{
		Tools:   s.tools,
		Input:   args[0],
		OutDir:  stringFlag(cmd, "out", s.job.Out),
		Frames:  frames,
		Seconds: time.Duration(seconds * float64(time.Second)),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	parts, err := pipeline.Split(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), l10n.F("Split into %d parts in %s", len(parts), cfg.OutDir))
	return nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx, s, err := start(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	out, inputs := args[0], args[1:]
	if err := pipeline.Merge(ctx, s.tools, inputs, out); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), l10n.F("Merged %d files into %s", len(inputs), out))
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	ctx, s, err := start(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	info, err := pipeline.Probe(ctx, s.tools, args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, l10n.F("Frame rate: %.3f", info.FrameRate))
	fmt.Fprintln(w, l10n.F("Frames: %d", info.TotalFrames))
	fmt.Fprintln(w, l10n.F("Duration: %s", info.Duration))
	return nil
}

// swapConfig merges job file, environment and flags for video and images.
func (s *session) swapConfig(cmd *cobra.Command, args []string) pipeline.Config {
	target := s.job.Target
	if len(args) > 0 {
		target = args[0]
	}
	if target != "" {
		if abs, err := filepath.Abs(target); err == nil {
			target = abs
		}
	}
	return pipeline.Config{
		Tools:         s.tools,
		Target:        target,
		SourceDir:     stringFlag(cmd, "sources", s.job.Sources),
		SourceLimit:   intFlag(cmd, "limit", s.job.Limit),
		OutDir:        stringFlag(cmd, "out", s.job.Out),
		EngineINI:     s.job.Engine.INI,
		EngineCommand: s.job.Engine.Command,
		EngineDir:     s.job.Engine.Dir,
	}
}

// stringFlag returns the flag value when it was set on the command line and
// fallback otherwise.
func stringFlag(cmd *cobra.Command, name, fallback string) string {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, _ := cmd.Flags().GetString(name)
	return v
}

func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, _ := cmd.Flags().GetInt(name)
	return v
}
