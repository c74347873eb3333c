package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/forPelevin/segswap/internal/domain/segments"
	"github.com/forPelevin/segswap/internal/metrics"
	"github.com/forPelevin/segswap/internal/ports"
	"github.com/forPelevin/segswap/internal/samples"
	"github.com/forPelevin/segswap/internal/types"
)

// ErrNoSamples stops a run before any media is touched.
var ErrNoSamples = errors.New("zero samples")

type Deps struct {
	Video    ports.VideoTool
	Swapper  ports.Swapper
	Log      *zap.Logger
	Progress func(total int, desc string) ports.Progress
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Progress == nil {
		d.Progress = func(int, string) ports.Progress { return nopProgress{} }
	}
	return Usecase{d: d}
}

type VideoInput struct {
	Target        string
	SourceDir     string
	SourceLimit   int
	OutDir        string
	SegmentFrames int
}

type ImagesInput struct {
	TargetDir   string
	SourceDir   string
	SourceLimit int
	OutDir      string
}

// SplitInput cuts by frame count when Frames > 0, otherwise by Seconds.
type SplitInput struct {
	Input   string
	OutDir  string
	Frames  int
	Seconds time.Duration
}

// SwapVideo runs the engine over a video in frame segments and merges the
// segments that succeeded. A failed segment is logged and left out of the
// merge; probe and merge failures end the run.
func (u Usecase) SwapVideo(ctx context.Context, in VideoInput) (types.VideoReport, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "SwapVideo")
	defer span.End()
	span.SetAttributes(attribute.String("video.target", in.Target))

	srcs, err := u.discover(in.SourceDir, in.SourceLimit)
	if err != nil {
		return types.VideoReport{}, err
	}
	if err := os.MkdirAll(in.OutDir, 0o755); err != nil {
		return types.VideoReport{}, err
	}

	probeStart := time.Now()
	info, err := u.d.Video.Probe(ctx, in.Target)
	if err != nil {
		return types.VideoReport{}, err
	}
	metrics.StageDuration.WithLabelValues("probe").Observe(time.Since(probeStart).Seconds())
	span.SetAttributes(attribute.Int("video.frames", info.TotalFrames))

	rep := types.VideoReport{Info: info}
	total := segments.Count(info.TotalFrames, in.SegmentFrames)
	u.d.Log.Info("video probed",
		zap.String("target", in.Target),
		zap.Int("frames", info.TotalFrames),
		zap.Float64("frame_rate", info.FrameRate),
		zap.Int("segments", total),
	)

	ext := filepath.Ext(in.Target)
	bar := u.d.Progress(total, "Swapping segments")
	for seg := range segments.Frames(info.TotalFrames, in.SegmentFrames) {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		out := filepath.Join(in.OutDir, fmt.Sprintf("seg[%d-%d]%s", seg.StartFrame, seg.EndFrame, ext))
		rep.Results = append(rep.Results, u.swapSegment(ctx, seg, total, types.SwapJob{
			Sources:   srcs,
			Target:    in.Target,
			Output:    out,
			TrimStart: ptr(seg.StartFrame),
			TrimEnd:   ptr(seg.EndFrame),
		}))
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	merged := filepath.Join(in.OutDir, stem(in.Target)+"_output"+ext)
	mergeStart := time.Now()
	if err := u.d.Video.Concat(ctx, rep.Succeeded(), merged); err != nil {
		return rep, fmt.Errorf("merge %d of %d segments: %w", len(rep.Succeeded()), len(rep.Results), err)
	}
	metrics.StageDuration.WithLabelValues("merge").Observe(time.Since(mergeStart).Seconds())
	rep.Merged = merged

	u.d.Log.Info("video merged",
		zap.String("output", merged),
		zap.Int("segments_ok", len(rep.Succeeded())),
		zap.Int("segments_failed", rep.Failed()),
	)
	return rep, nil
}

func (u Usecase) swapSegment(ctx context.Context, seg types.Segment, total int, job types.SwapJob) types.SegmentResult {
	log := u.d.Log.With(
		zap.Int("segment", seg.Index+1),
		zap.Int("of", total),
		zap.Int("start_frame", seg.StartFrame),
		zap.Int("end_frame", seg.EndFrame),
	)
	log.Info("processing segment", zap.String("output", job.Output))

	started := time.Now()
	produced, err := u.d.Swapper.Swap(ctx, job)
	metrics.StageDuration.WithLabelValues("swap").Observe(time.Since(started).Seconds())

	res := types.SegmentResult{Segment: seg, Output: job.Output}
	if err != nil {
		var tse *ports.TransformStepError
		if !errors.As(err, &tse) {
			err = &ports.TransformStepError{Err: err}
		}
		res.Err = err
		metrics.SegmentsTotal.WithLabelValues("failed").Inc()
		log.Error("segment failed, skipping", zap.Error(err))
		return res
	}
	res.Output = produced
	metrics.SegmentsTotal.WithLabelValues("ok").Inc()
	metrics.FramesTotal.Add(float64(seg.Frames()))
	return res
}

// SwapImages runs the engine once over a directory of target images. The
// output lands in <OutDir>/<target dir name>/<source dir name>.
func (u Usecase) SwapImages(ctx context.Context, in ImagesInput) (string, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "SwapImages")
	defer span.End()

	srcs, err := u.discover(in.SourceDir, in.SourceLimit)
	if err != nil {
		return "", err
	}
	out := filepath.Join(in.OutDir, filepath.Base(filepath.Clean(in.TargetDir)), filepath.Base(filepath.Clean(in.SourceDir)))
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", err
	}

	u.d.Log.Info("processing images", zap.String("target", in.TargetDir), zap.String("output", out))
	started := time.Now()
	produced, err := u.d.Swapper.Swap(ctx, types.SwapJob{
		Sources: srcs,
		Target:  in.TargetDir,
		Output:  out,
	})
	metrics.StageDuration.WithLabelValues("swap").Observe(time.Since(started).Seconds())
	if err != nil {
		return "", err
	}
	return produced, nil
}

// Split cuts a video into <stem>_part<NNNN><ext> files with stream copy. The
// first failed cut aborts the pass; the parts cut so far are returned with
// the error.
func (u Usecase) Split(ctx context.Context, in SplitInput) ([]string, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "Split")
	defer span.End()

	if err := os.MkdirAll(in.OutDir, 0o755); err != nil {
		return nil, err
	}
	if in.Frames > 0 {
		return u.splitFrames(ctx, in)
	}
	if in.Seconds > 0 {
		return u.splitTime(ctx, in)
	}
	return nil, errors.New("split: frames or seconds must be > 0")
}

func (u Usecase) splitFrames(ctx context.Context, in SplitInput) ([]string, error) {
	info, err := u.d.Video.Probe(ctx, in.Input)
	if err != nil {
		return nil, err
	}

	var parts []string
	bar := u.d.Progress(segments.Count(info.TotalFrames, in.Frames), "Splitting Video")
	defer func() { _ = bar.Finish() }()
	for seg := range segments.Frames(info.TotalFrames, in.Frames) {
		out := partPath(in.OutDir, in.Input, seg.Index)
		start := segments.StartSeconds(seg, info.FrameRate)
		err := u.d.Video.ExtractFrames(ctx, in.Input, out, start, seg.Frames())
		_ = bar.Add(1)
		if err != nil {
			return parts, &ports.SegmentExtractionError{Index: seg.Index, Offset: start, Frame: seg.StartFrame, Err: err}
		}
		metrics.PartsExtractedTotal.Inc()
		parts = append(parts, out)
	}
	u.d.Log.Info("video split", zap.String("input", in.Input), zap.Int("parts", len(parts)))
	return parts, nil
}

func (u Usecase) splitTime(ctx context.Context, in SplitInput) ([]string, error) {
	total, err := u.d.Video.ProbeDuration(ctx, in.Input)
	if err != nil {
		return nil, err
	}

	var parts []string
	bar := u.d.Progress(segments.TimeCount(total, in.Seconds), "Splitting Video")
	defer func() { _ = bar.Finish() }()
	for win := range segments.Times(total, in.Seconds) {
		out := partPath(in.OutDir, in.Input, win.Index)
		err := u.d.Video.ExtractTime(ctx, in.Input, out, win.Start, win.Length)
		_ = bar.Add(1)
		if err != nil {
			return parts, &ports.SegmentExtractionError{Index: win.Index, Offset: win.Start, Frame: -1, Err: err}
		}
		metrics.PartsExtractedTotal.Inc()
		parts = append(parts, out)
	}
	u.d.Log.Info("video split", zap.String("input", in.Input), zap.Int("parts", len(parts)))
	return parts, nil
}

// Merge concatenates inputs into out with stream copy.
func (u Usecase) Merge(ctx context.Context, inputs []string, out string) error {
	ctx, span := otel.Tracer("usecase").Start(ctx, "Merge")
	defer span.End()

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	return u.d.Video.Concat(ctx, inputs, out)
}

func (u Usecase) discover(dir string, limit int) ([]string, error) {
	srcs, err := samples.Discover(dir, limit)
	if err != nil {
		return nil, fmt.Errorf("discover samples: %w", err)
	}
	u.d.Log.Info("samples discovered", zap.String("dir", dir), zap.Int("count", len(srcs)))
	if len(srcs) == 0 {
		return nil, ErrNoSamples
	}
	return srcs, nil
}

func partPath(dir, input string, idx int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_part%04d%s", stem(input), idx, filepath.Ext(input)))
}

func stem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func ptr(v int) *int { return &v }

type nopProgress struct{}

func (nopProgress) Add(int) error  { return nil }
func (nopProgress) Finish() error { return nil }
