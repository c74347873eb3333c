package segments

import (
	"iter"
	"time"

	"github.com/forPelevin/segswap/internal/types"
)

// Frames yields inclusive frame ranges of at most size frames covering
// [0, total-1]. It yields nothing when total or size is not positive.
func Frames(total, size int) iter.Seq[types.Segment] {
	return func(yield func(types.Segment) bool) {
		if total <= 0 || size <= 0 {
			return
		}
		for idx, start := 0, 0; ; idx, start = idx+1, start+size {
			left := total - start
			end := start + min(size, left) - 1
			if !yield(types.Segment{Index: idx, StartFrame: start, EndFrame: end}) {
				return
			}
			if left <= size {
				return
			}
		}
	}
}

// Count is the number of segments Frames yields.
func Count(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	n := total / size
	if total%size != 0 {
		n++
	}
	return n
}

// Times yields windows of length starting at 0, length, 2*length... while the
// start is before total. The last window may run past the end of the media.
func Times(total, length time.Duration) iter.Seq[types.TimeSegment] {
	return func(yield func(types.TimeSegment) bool) {
		if total <= 0 || length <= 0 {
			return
		}
		for idx, cur := 0, time.Duration(0); ; idx, cur = idx+1, cur+length {
			if !yield(types.TimeSegment{Index: idx, Start: cur, Length: length}) {
				return
			}
			if total-cur <= length {
				return
			}
		}
	}
}

// TimeCount is the progress estimate for Times: floor(total/length)+1. It
// overshoots by one when total is an exact multiple of length.
func TimeCount(total, length time.Duration) int {
	if length <= 0 {
		return 0
	}
	return int(total/length) + 1
}

// StartSeconds is the timestamp of a segment's first frame.
func StartSeconds(seg types.Segment, frameRate float64) time.Duration {
	if frameRate <= 0 {
		return 0
	}
	return time.Duration(float64(seg.StartFrame) / frameRate * float64(time.Second))
}
