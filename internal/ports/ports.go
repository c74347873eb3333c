package ports

import (
	"context"
	"time"

	"github.com/forPelevin/segswap/internal/types"
)

type VideoTool interface {
	Probe(ctx context.Context, path string) (types.VideoInfo, error)
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	ExtractFrames(ctx context.Context, in, out string, start time.Duration, frames int) error
	ExtractTime(ctx context.Context, in, out string, start, length time.Duration) error
	Concat(ctx context.Context, inputs []string, out string) error
}

// Swapper runs the external face swap engine once and returns the file it
// produced.
type Swapper interface {
	Swap(ctx context.Context, job types.SwapJob) (string, error)
}

// Progress receives one tick per finished unit of work.
type Progress interface {
	Add(n int) error
	Finish() error
}
