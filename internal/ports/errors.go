package ports

import (
	"errors"
	"fmt"
	"time"
)

// ErrMergeInputMissing is returned when concat has nothing to merge or one of
// the listed files is gone.
var ErrMergeInputMissing = errors.New("merge input missing")

// MediaReadError means a file could not be probed: it is missing, ffprobe
// failed, or its output did not parse.
type MediaReadError struct {
	Path   string
	Output string
	Err    error
}

func (e *MediaReadError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("read media %s: %v\n%s", e.Path, e.Err, e.Output)
	}
	return fmt.Sprintf("read media %s: %v", e.Path, e.Err)
}

func (e *MediaReadError) Unwrap() error { return e.Err }

// SegmentExtractionError reports a failed cut. Offset is the start of the
// window, Frame is set for frame-based cuts and is -1 otherwise. Err carries
// the ffmpeg diagnostic output.
type SegmentExtractionError struct {
	Index  int
	Offset time.Duration
	Frame  int
	Err    error
}

func (e *SegmentExtractionError) Error() string {
	if e.Frame >= 0 {
		return fmt.Sprintf("extract segment %d starting at frame %d: %v", e.Index, e.Frame, e.Err)
	}
	return fmt.Sprintf("extract segment %d starting at %s: %v", e.Index, e.Offset, e.Err)
}

func (e *SegmentExtractionError) Unwrap() error { return e.Err }

type TransformStepError struct {
	Output string
	Err    error
}

func (e *TransformStepError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("transform step: %v\n%s", e.Err, e.Output)
	}
	return fmt.Sprintf("transform step: %v", e.Err)
}

func (e *TransformStepError) Unwrap() error { return e.Err }

type MergeExecutionError struct {
	Output string
	Err    error
}

func (e *MergeExecutionError) Error() string {
	return fmt.Sprintf("ffmpeg concat: %v\n%s", e.Err, e.Output)
}

func (e *MergeExecutionError) Unwrap() error { return e.Err }
