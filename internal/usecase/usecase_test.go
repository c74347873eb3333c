package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/segswap/internal/ports"
	"github.com/forPelevin/segswap/internal/types"
)

type extractCall struct {
	out    string
	start  time.Duration
	frames int
	length time.Duration
}

type fakeVideoTool struct {
	info      types.VideoInfo
	probeErr  error
	duration  time.Duration
	failAt    int
	extracted []extractCall
	concatIn  []string
	concatOut string
	concatErr error
	probed    int
}

func (f *fakeVideoTool) Probe(context.Context, string) (types.VideoInfo, error) {
	f.probed++
	return f.info, f.probeErr
}

func (f *fakeVideoTool) ProbeDuration(context.Context, string) (time.Duration, error) {
	f.probed++
	return f.duration, f.probeErr
}

func (f *fakeVideoTool) ExtractFrames(_ context.Context, _, out string, start time.Duration, frames int) error {
	f.extracted = append(f.extracted, extractCall{out: out, start: start, frames: frames})
	if f.failAt > 0 && len(f.extracted) == f.failAt {
		return errors.New("invalid data")
	}
	return nil
}

func (f *fakeVideoTool) ExtractTime(_ context.Context, _, out string, start, length time.Duration) error {
	f.extracted = append(f.extracted, extractCall{out: out, start: start, length: length})
	if f.failAt > 0 && len(f.extracted) == f.failAt {
		return errors.New("invalid data")
	}
	return nil
}

func (f *fakeVideoTool) Concat(_ context.Context, inputs []string, out string) error {
	f.concatIn = append([]string(nil), inputs...)
	f.concatOut = out
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ports.ErrMergeInputMissing)
	}
	return f.concatErr
}

type fakeSwapper struct {
	fail map[int]bool
	jobs []types.SwapJob
}

func (f *fakeSwapper) Swap(_ context.Context, job types.SwapJob) (string, error) {
	f.jobs = append(f.jobs, job)
	if job.TrimStart != nil && f.fail[*job.TrimStart] {
		return "", errors.New("engine exited with status 1")
	}
	return job.Output, nil
}

type countingProgress struct {
	total    int
	added    int
	finished bool
}

func (p *countingProgress) Add(n int) error {
	p.added += n
	return nil
}

func (p *countingProgress) Finish() error {
	p.finished = true
	return nil
}

func sampleDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	return dir
}

func TestSwapVideo_SkipsFailedSegmentsAndKeepsOrder(t *testing.T) {
	vt := &fakeVideoTool{info: types.VideoInfo{FrameRate: 25, TotalFrames: 250}}
	sw := &fakeSwapper{fail: map[int]bool{50: true}}
	var bar *countingProgress
	uc := New(Deps{
		Video:   vt,
		Swapper: sw,
		Progress: func(total int, _ string) ports.Progress {
			bar = &countingProgress{total: total}
			return bar
		},
	})

	out := t.TempDir()
	rep, err := uc.SwapVideo(context.Background(), VideoInput{
		Target:        "/videos/clip.mp4",
		SourceDir:     sampleDir(t, "a.jpg", "b.png"),
		OutDir:        out,
		SegmentFrames: 50,
	})
	require.NoError(t, err)

	require.Len(t, sw.jobs, 5)
	assert.Len(t, sw.jobs[0].Sources, 2)
	assert.Equal(t, 0, *sw.jobs[0].TrimStart)
	assert.Equal(t, 49, *sw.jobs[0].TrimEnd)
	assert.Equal(t, filepath.Join(out, "seg[0-49].mp4"), sw.jobs[0].Output)

	assert.Equal(t, 1, rep.Failed())
	assert.Equal(t, []string{
		filepath.Join(out, "seg[0-49].mp4"),
		filepath.Join(out, "seg[100-149].mp4"),
		filepath.Join(out, "seg[150-199].mp4"),
		filepath.Join(out, "seg[200-249].mp4"),
	}, vt.concatIn)
	assert.Equal(t, filepath.Join(out, "clip_output.mp4"), rep.Merged)

	var tse *ports.TransformStepError
	require.ErrorAs(t, rep.Results[1].Err, &tse)

	require.NotNil(t, bar)
	assert.Equal(t, 5, bar.total)
	assert.Equal(t, 5, bar.added)
	assert.True(t, bar.finished)
}

func TestSwapVideo_ZeroFramesFailsAtMerge(t *testing.T) {
	vt := &fakeVideoTool{info: types.VideoInfo{FrameRate: 25, TotalFrames: 0}}
	sw := &fakeSwapper{}
	uc := New(Deps{Video: vt, Swapper: sw})

	rep, err := uc.SwapVideo(context.Background(), VideoInput{
		Target:        "/videos/empty.mp4",
		SourceDir:     sampleDir(t, "a.jpg"),
		OutDir:        t.TempDir(),
		SegmentFrames: 50,
	})
	require.ErrorIs(t, err, ports.ErrMergeInputMissing)
	assert.Empty(t, sw.jobs)
	assert.Empty(t, rep.Merged)
}

func TestSwapVideo_AllSegmentsFailed(t *testing.T) {
	vt := &fakeVideoTool{info: types.VideoInfo{FrameRate: 25, TotalFrames: 100}}
	sw := &fakeSwapper{fail: map[int]bool{0: true, 50: true}}
	uc := New(Deps{Video: vt, Swapper: sw})

	rep, err := uc.SwapVideo(context.Background(), VideoInput{
		Target:        "/videos/clip.mp4",
		SourceDir:     sampleDir(t, "a.jpg"),
		OutDir:        t.TempDir(),
		SegmentFrames: 50,
	})
	require.ErrorIs(t, err, ports.ErrMergeInputMissing)
	assert.Equal(t, 2, rep.Failed())
}

func TestSwapVideo_NoSamplesStopsBeforeProbe(t *testing.T) {
	vt := &fakeVideoTool{}
	uc := New(Deps{Video: vt, Swapper: &fakeSwapper{}})

	_, err := uc.SwapVideo(context.Background(), VideoInput{
		Target:        "/videos/clip.mp4",
		SourceDir:     sampleDir(t, "notes.txt"),
		OutDir:        t.TempDir(),
		SegmentFrames: 50,
	})
	require.ErrorIs(t, err, ErrNoSamples)
	assert.Zero(t, vt.probed)
}

func TestSwapVideo_ProbeErrorEndsRun(t *testing.T) {
	probeErr := &ports.MediaReadError{Path: "/videos/clip.mp4", Err: os.ErrNotExist}
	vt := &fakeVideoTool{probeErr: probeErr}
	sw := &fakeSwapper{}
	uc := New(Deps{Video: vt, Swapper: sw})

	_, err := uc.SwapVideo(context.Background(), VideoInput{
		Target:        "/videos/clip.mp4",
		SourceDir:     sampleDir(t, "a.jpg"),
		OutDir:        t.TempDir(),
		SegmentFrames: 50,
	})
	var mre *ports.MediaReadError
	require.ErrorAs(t, err, &mre)
	assert.Empty(t, sw.jobs)
	assert.Nil(t, vt.concatIn)
}

func TestSwapVideo_CancelledContext(t *testing.T) {
	vt := &fakeVideoTool{info: types.VideoInfo{FrameRate: 25, TotalFrames: 100}}
	sw := &fakeSwapper{}
	uc := New(Deps{Video: vt, Swapper: sw})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := uc.SwapVideo(ctx, VideoInput{
		Target:        "/videos/clip.mp4",
		SourceDir:     sampleDir(t, "a.jpg"),
		OutDir:        t.TempDir(),
		SegmentFrames: 50,
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sw.jobs)
}

func TestSwapImages_OutputLayout(t *testing.T) {
	sw := &fakeSwapper{}
	uc := New(Deps{Video: &fakeVideoTool{}, Swapper: sw})

	src := filepath.Join(t.TempDir(), "faces")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.jpg"), []byte("x"), 0o644))
	out := t.TempDir()

	got, err := uc.SwapImages(context.Background(), ImagesInput{
		TargetDir: "/data/targets/party/",
		SourceDir: src,
		OutDir:    out,
	})
	require.NoError(t, err)
	want := filepath.Join(out, "party", "faces")
	assert.Equal(t, want, got)
	assert.DirExists(t, want)
	require.Len(t, sw.jobs, 1)
	assert.Equal(t, "/data/targets/party/", sw.jobs[0].Target)
	assert.Nil(t, sw.jobs[0].TrimStart)
}

func TestSplit_ByFrames(t *testing.T) {
	vt := &fakeVideoTool{info: types.VideoInfo{FrameRate: 25, TotalFrames: 120}}
	uc := New(Deps{Video: vt})
	out := t.TempDir()

	parts, err := uc.Split(context.Background(), SplitInput{Input: "/v/clip.mkv", OutDir: out, Frames: 50})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(out, "clip_part0000.mkv"),
		filepath.Join(out, "clip_part0001.mkv"),
		filepath.Join(out, "clip_part0002.mkv"),
	}, parts)
	assert.Equal(t, []extractCall{
		{out: parts[0], start: 0, frames: 50},
		{out: parts[1], start: 2 * time.Second, frames: 50},
		{out: parts[2], start: 4 * time.Second, frames: 20},
	}, vt.extracted)
}

func TestSplit_ByTime(t *testing.T) {
	vt := &fakeVideoTool{duration: 50 * time.Second}
	uc := New(Deps{Video: vt})
	out := t.TempDir()

	parts, err := uc.Split(context.Background(), SplitInput{Input: "/v/clip.mp4", OutDir: out, Seconds: 24 * time.Second})
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, 48*time.Second, vt.extracted[2].start)
	assert.Equal(t, 24*time.Second, vt.extracted[2].length)
}

func TestSplit_AbortsOnFirstFailure(t *testing.T) {
	vt := &fakeVideoTool{info: types.VideoInfo{FrameRate: 25, TotalFrames: 250}, failAt: 2}
	var bar *countingProgress
	uc := New(Deps{Video: vt, Progress: func(total int, _ string) ports.Progress {
		bar = &countingProgress{total: total}
		return bar
	}})

	parts, err := uc.Split(context.Background(), SplitInput{Input: "/v/clip.mp4", OutDir: t.TempDir(), Frames: 50})
	var see *ports.SegmentExtractionError
	require.ErrorAs(t, err, &see)
	assert.Equal(t, 1, see.Index)
	assert.Equal(t, 50, see.Frame)
	assert.Equal(t, 2*time.Second, see.Offset)
	assert.Len(t, parts, 1)
	assert.Len(t, vt.extracted, 2)
	assert.Equal(t, 5, bar.total)
	assert.Equal(t, 2, bar.added)
	assert.True(t, bar.finished)
}

func TestSplit_NeedsFramesOrSeconds(t *testing.T) {
	uc := New(Deps{Video: &fakeVideoTool{}})
	_, err := uc.Split(context.Background(), SplitInput{Input: "/v/clip.mp4", OutDir: t.TempDir()})
	require.Error(t, err)
}

func TestMerge_CreatesOutputDir(t *testing.T) {
	vt := &fakeVideoTool{}
	uc := New(Deps{Video: vt})
	out := filepath.Join(t.TempDir(), "merged", "all.mp4")

	require.NoError(t, uc.Merge(context.Background(), []string{"a.mp4", "b.mp4"}, out))
	assert.DirExists(t, filepath.Dir(out))
	assert.Equal(t, []string{"a.mp4", "b.mp4"}, vt.concatIn)
	assert.Equal(t, out, vt.concatOut)
}

func TestMerge_EmptyInputs(t *testing.T) {
	uc := New(Deps{Video: &fakeVideoTool{}})
	err := uc.Merge(context.Background(), nil, filepath.Join(t.TempDir(), "out.mp4"))
	require.ErrorIs(t, err, ports.ErrMergeInputMissing)
}
