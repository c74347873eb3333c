package ffmpeg

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/segswap/internal/types"
)

var reRational = regexp.MustCompile(`^(\d+)/(\d+)$`)

// ParseProbeOutput reads the value-only lines printed by ffprobe for
// r_frame_rate, nb_frames and, optionally, format duration, in that order.
func ParseProbeOutput(out string) (types.VideoInfo, error) {
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return types.VideoInfo{}, fmt.Errorf("unexpected ffprobe output %q", strings.TrimSpace(out))
	}
	rate, err := ParseFrameRate(fields[0])
	if err != nil {
		return types.VideoInfo{}, err
	}
	frames, err := ParseFrameCount(fields[1])
	if err != nil {
		return types.VideoInfo{}, err
	}
	info := types.VideoInfo{FrameRate: rate, TotalFrames: frames}
	if len(fields) > 2 && fields[2] != "N/A" {
		sec, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return types.VideoInfo{}, fmt.Errorf("parse duration %q: %w", fields[2], err)
		}
		info.Duration = time.Duration(sec * float64(time.Second))
	}
	return info, nil
}

// ParseFrameRate accepts "num/den" or a decimal.
func ParseFrameRate(s string) (float64, error) {
	if m := reRational.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den == 0 {
			return 0, fmt.Errorf("parse frame rate %q: zero denominator", s)
		}
		if num <= 0 {
			return 0, fmt.Errorf("parse frame rate %q: must be > 0", s)
		}
		return num / den, nil
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	if r <= 0 {
		return 0, fmt.Errorf("parse frame rate %q: must be > 0", s)
	}
	return r, nil
}

// ParseFrameCount accepts an integer or "num/den", the latter truncated by
// integer division.
func ParseFrameCount(s string) (int, error) {
	if m := reRational.FindStringSubmatch(s); m != nil {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("parse frame count %q: %w", s, err)
		}
		den, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, fmt.Errorf("parse frame count %q: %w", s, err)
		}
		if den == 0 {
			return 0, fmt.Errorf("parse frame count %q: zero denominator", s)
		}
		return num / den, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse frame count %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("parse frame count %q: negative", s)
	}
	return n, nil
}
