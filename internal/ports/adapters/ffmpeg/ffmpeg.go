package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/forPelevin/segswap/internal/ports"
	"github.com/forPelevin/segswap/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
	log     *zap.Logger
}

func New(ffmpegPath, ffprobePath string, log *zap.Logger) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, log: log}
}

func (a *Adapter) Probe(ctx context.Context, path string) (types.VideoInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return types.VideoInfo{}, &ports.MediaReadError{Path: path, Err: err}
	}
	if fi.IsDir() {
		return types.VideoInfo{}, &ports.MediaReadError{Path: path, Err: errors.New("is a directory")}
	}

	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "format=duration:stream=nb_frames,r_frame_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.VideoInfo{}, &ports.MediaReadError{Path: path, Output: string(b), Err: fmt.Errorf("ffprobe: %w", err)}
	}
	info, err := ParseProbeOutput(string(b))
	if err != nil {
		return types.VideoInfo{}, &ports.MediaReadError{Path: path, Output: string(b), Err: err}
	}
	info.Path = path
	a.log.Debug("probed video",
		zap.String("path", path),
		zap.Float64("frame_rate", info.FrameRate),
		zap.Int("frames", info.TotalFrames),
		zap.Duration("duration", info.Duration),
	)
	return info, nil
}

// ProbeDuration reads only the container duration, which is all the
// time-based split needs and is available for containers without nb_frames.
func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, &ports.MediaReadError{Path: path, Err: err}
	}
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, &ports.MediaReadError{Path: path, Output: string(b), Err: fmt.Errorf("ffprobe duration: %w", err)}
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ports.MediaReadError{Path: path, Output: string(b), Err: fmt.Errorf("parse duration %q: %w", s, err)}
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func (a *Adapter) ExtractFrames(ctx context.Context, in, out string, start time.Duration, frames int) error {
	b, err := a.run(ctx,
		"-y",
		"-ss", fmtSeconds(start),
		"-i", in,
		"-frames:v", strconv.Itoa(frames),
		"-c", "copy",
		out,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg extract frames: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ExtractTime(ctx context.Context, in, out string, start, length time.Duration) error {
	b, err := a.run(ctx,
		"-y",
		"-ss", fmtSeconds(start),
		"-i", in,
		"-t", fmtSeconds(length),
		"-c", "copy",
		out,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg extract window: %w\n%s", err, string(b))
	}
	return nil
}

// Concat joins inputs with the concat demuxer and stream copy. Every input is
// checked before the manifest is written.
func (a *Adapter) Concat(ctx context.Context, inputs []string, out string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ports.ErrMergeInputMissing)
	}
	abs := make([]string, 0, len(inputs))
	for _, in := range inputs {
		fi, err := os.Stat(in)
		if err != nil || !fi.Mode().IsRegular() {
			return fmt.Errorf("%w: %s", ports.ErrMergeInputMissing, in)
		}
		p, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		abs = append(abs, p)
	}

	manifest, err := writeManifest(filepath.Dir(out), abs)
	if err != nil {
		return fmt.Errorf("write concat manifest: %w", err)
	}
	defer func() { _ = os.Remove(manifest) }()

	b, err := a.run(ctx,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		out,
	)
	if err != nil {
		return &ports.MergeExecutionError{Output: string(b), Err: err}
	}
	return nil
}

func (a *Adapter) run(ctx context.Context, args ...string) ([]byte, error) {
	a.log.Debug("exec", zap.String("bin", a.ffmpeg), zap.Strings("args", args))
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	return cmd.CombinedOutput()
}

func writeManifest(dir string, paths []string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, ".concat-*.txt")
	if err != nil {
		return "", err
	}
	_, err = f.WriteString(ManifestText(paths))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// ManifestText renders a concat demuxer list.
func ManifestText(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', -1, 64)
}
