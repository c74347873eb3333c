package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forPelevin/segswap/internal/ports"
	"github.com/forPelevin/segswap/internal/ports/adapters/facefusion"
	"github.com/forPelevin/segswap/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/segswap/internal/progress"
	"github.com/forPelevin/segswap/internal/types"
	"github.com/forPelevin/segswap/internal/usecase"
)

// Tools is what every command needs to reach ffmpeg and report.
type Tools struct {
	FFmpegPath  string
	FFprobePath string
	Logger      *zap.Logger
	Progress    progress.Factory
}

// Config describes one face swap run. Target is a video file, or a
// directory of images when Images is set.
type Config struct {
	Tools

	Target        string
	Images        bool
	SourceDir     string
	SourceLimit   int
	OutDir        string
	SegmentFrames int

	EngineINI     string
	EngineCommand []string
	EngineDir     string
}

func (c Config) Validate() error {
	if c.Target == "" {
		return errors.New("target is empty")
	}
	fi, err := os.Stat(c.Target)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}
	if c.Images && !fi.IsDir() {
		return fmt.Errorf("target %s is not a directory", c.Target)
	}
	if !c.Images && fi.IsDir() {
		return fmt.Errorf("target %s is a directory", c.Target)
	}
	if c.SourceDir == "" {
		return errors.New("sources dir is empty")
	}
	if fi, err := os.Stat(c.SourceDir); err != nil {
		return fmt.Errorf("stat sources: %w", err)
	} else if !fi.IsDir() {
		return fmt.Errorf("sources %s is not a directory", c.SourceDir)
	}
	if c.SourceLimit < 0 {
		return fmt.Errorf("limit must be >= 0")
	}
	if !c.Images && c.SegmentFrames <= 0 {
		return fmt.Errorf("segment frames must be > 0")
	}
	if c.EngineINI == "" {
		return errors.New("engine ini path is required (FACEFUSION_INI or engine.ini in the job file)")
	}
	if _, err := os.Stat(c.EngineINI); err != nil {
		return fmt.Errorf("stat engine ini: %w", err)
	}
	if c.EngineDir != "" {
		if fi, err := os.Stat(c.EngineDir); err != nil {
			return fmt.Errorf("stat engine dir: %w", err)
		} else if !fi.IsDir() {
			return fmt.Errorf("engine dir %s is not a directory", c.EngineDir)
		}
	}
	return nil
}

// RunVideo swaps faces across a whole video. Segments and the merged file go
// to <OutDir>/<normalized video name>.
func RunVideo(ctx context.Context, cfg Config) (types.VideoReport, error) {
	log := runLogger(cfg.Logger, "video")
	uc := newUsecase(cfg, log)

	outDir := buildRunOutDir(outRoot(cfg.OutDir), cfg.Target)
	log.Info("output run dir", zap.String("dir", outDir))

	started := time.Now()
	rep, err := uc.SwapVideo(ctx, usecase.VideoInput{
		Target:        cfg.Target,
		SourceDir:     cfg.SourceDir,
		SourceLimit:   cfg.SourceLimit,
		OutDir:        outDir,
		SegmentFrames: cfg.SegmentFrames,
	})
	if err != nil {
		return rep, err
	}
	log.Info("run finished", zap.Duration("took", time.Since(started)))
	return rep, nil
}

func RunImages(ctx context.Context, cfg Config) (string, error) {
	log := runLogger(cfg.Logger, "images")
	return newUsecase(cfg, log).SwapImages(ctx, usecase.ImagesInput{
		TargetDir:   cfg.Target,
		SourceDir:   cfg.SourceDir,
		SourceLimit: cfg.SourceLimit,
		OutDir:      outRoot(cfg.OutDir),
	})
}

type SplitConfig struct {
	Tools

	Input   string
	OutDir  string
	Frames  int
	Seconds time.Duration
}

func (c SplitConfig) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.Input); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if (c.Frames > 0) == (c.Seconds > 0) {
		return errors.New("exactly one of frames or seconds must be > 0")
	}
	if c.Frames < 0 || c.Seconds < 0 {
		return errors.New("frames and seconds must not be negative")
	}
	return nil
}

func Split(ctx context.Context, cfg SplitConfig) ([]string, error) {
	log := runLogger(cfg.Logger, "split")
	return newToolsUsecase(cfg.Tools, log).Split(ctx, usecase.SplitInput{
		Input:   cfg.Input,
		OutDir:  outRoot(cfg.OutDir),
		Frames:  cfg.Frames,
		Seconds: cfg.Seconds,
	})
}

func Merge(ctx context.Context, tools Tools, inputs []string, out string) error {
	log := runLogger(tools.Logger, "merge")
	return newToolsUsecase(tools, log).Merge(ctx, inputs, out)
}

func Probe(ctx context.Context, tools Tools, path string) (types.VideoInfo, error) {
	return ffmpeg.New(tools.FFmpegPath, tools.FFprobePath, tools.Logger).Probe(ctx, path)
}

func newUsecase(cfg Config, log *zap.Logger) usecase.Usecase {
	return usecase.New(usecase.Deps{
		Video:    ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, log),
		Swapper:  facefusion.New(cfg.EngineINI, cfg.EngineCommand, cfg.EngineDir, log),
		Log:      log,
		Progress: cfg.Progress,
	})
}

func newToolsUsecase(t Tools, log *zap.Logger) usecase.Usecase {
	return usecase.New(usecase.Deps{
		Video:    ffmpeg.New(t.FFmpegPath, t.FFprobePath, log),
		Log:      log,
		Progress: t.Progress,
	})
}

func runLogger(l *zap.Logger, cmd string) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return l.With(zap.String("run_id", uuid.NewString()), zap.String("cmd", cmd))
}

func outRoot(dir string) string {
	if dir == "" {
		return "output"
	}
	return dir
}

func buildRunOutDir(outRoot, target string) string {
	name := strings.TrimSuffix(filepath.Base(target), filepath.Ext(target))
	name = normalizePathSegment(name)
	if name == "" {
		name = "video"
	}
	return filepath.Join(outRoot, name)
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.Swapper = (*facefusion.Adapter)(nil)
