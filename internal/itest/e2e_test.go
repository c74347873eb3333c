//go:build integration

package itest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/segswap/internal/pipeline"
)

func TestE2E_SplitMergeRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "clip.mp4")
	makeClip(t, in, 250)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tools := pipeline.Tools{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"}
	info, err := pipeline.Probe(ctx, tools, in)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.TotalFrames != 250 {
		t.Fatalf("expected 250 frames, got %d", info.TotalFrames)
	}

	parts, err := pipeline.Split(ctx, pipeline.SplitConfig{
		Tools:  tools,
		Input:  in,
		OutDir: filepath.Join(tmp, "parts"),
		Frames: 50,
	})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(parts) != 5 {
		t.Fatalf("expected 5 parts, got %d", len(parts))
	}
	sum := 0
	for _, p := range parts {
		n, err := countFrames(p)
		if err != nil {
			t.Fatalf("count %s: %v", p, err)
		}
		sum += n
	}
	if sum != 250 {
		t.Fatalf("parts hold %d frames, want 250", sum)
	}

	merged := filepath.Join(tmp, "merged", "clip.mp4")
	if err := pipeline.Merge(ctx, tools, parts, merged); err != nil {
		t.Fatalf("merge: %v", err)
	}
	n, err := countFrames(merged)
	if err != nil {
		t.Fatalf("count merged: %v", err)
	}
	if n != 250 {
		t.Fatalf("merged has %d frames, want 250", n)
	}
}

func TestE2E_SplitBySeconds(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "clip.mp4")
	makeClip(t, in, 250)

	parts, err := pipeline.Split(context.Background(), pipeline.SplitConfig{
		Tools:   pipeline.Tools{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"},
		Input:   in,
		OutDir:  filepath.Join(tmp, "parts"),
		Seconds: 4 * time.Second,
	})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts for 10s in 4s windows, got %d", len(parts))
	}
}

// fakeEngine cuts the configured trim range out of the target, the way the
// real engine writes one processed segment per run.
const fakeEngine = `#!/bin/sh
get() { sed -n "s/^$1[[:space:]]*=[[:space:]]*//p" facefusion.ini | head -n 1; }
target=$(get target_path)
output=$(get output_path)
start=$(get trim_frame_start)
end=$(get trim_frame_end)
exec ffmpeg -y -v error -i "$target" \
  -vf "select=between(n\,$start\,$end),setpts=N/FRAME_RATE/TB" \
  -an -c:v libx264 -pix_fmt yuv420p "$output"
`

func TestE2E_SwapVideoWithFakeEngine(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "My Clip.mp4")
	makeClip(t, in, 120)

	sources := filepath.Join(tmp, "faces")
	if err := os.MkdirAll(sources, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	makeImage(t, filepath.Join(sources, "face.png"))

	engineDir := filepath.Join(tmp, "engine")
	if err := os.MkdirAll(engineDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	ini := filepath.Join(engineDir, "facefusion.ini")
	iniText := "[general]\nsource_paths =\ntarget_path =\noutput_path =\n\n[frame_extraction]\ntrim_frame_start =\ntrim_frame_end =\n\n[misc]\nheadless =\n"
	if err := os.WriteFile(ini, []byte(iniText), 0o644); err != nil {
		t.Fatalf("write ini: %v", err)
	}
	script := filepath.Join(engineDir, "engine.sh")
	if err := os.WriteFile(script, []byte(fakeEngine), 0o755); err != nil {
		t.Fatalf("write engine: %v", err)
	}

	cfg := pipeline.Config{
		Tools:         pipeline.Tools{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"},
		Target:        in,
		SourceDir:     sources,
		SourceLimit:   10,
		OutDir:        filepath.Join(tmp, "out"),
		SegmentFrames: 50,
		EngineINI:     ini,
		EngineCommand: []string{script},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	rep, err := pipeline.RunVideo(ctx, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Failed() != 0 || len(rep.Results) != 3 {
		t.Fatalf("unexpected results: %d segments, %d failed", len(rep.Results), rep.Failed())
	}
	want := filepath.Join(tmp, "out", "my-clip", "My Clip_output.mp4")
	if rep.Merged != want {
		t.Fatalf("merged path %s, want %s", rep.Merged, want)
	}
	n, err := countFrames(rep.Merged)
	if err != nil {
		t.Fatalf("count merged: %v", err)
	}
	if n != 120 {
		t.Fatalf("merged has %d frames, want 120", n)
	}

	b, err := os.ReadFile(ini)
	if err != nil {
		t.Fatalf("read ini: %v", err)
	}
	if strings.Contains(string(b), in) {
		t.Fatalf("engine settings were not cleared:\n%s", b)
	}
}
