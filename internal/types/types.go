package types

import "time"

type VideoInfo struct {
	Path        string
	FrameRate   float64
	TotalFrames int
	Duration    time.Duration
}

// Segment is an inclusive frame range [StartFrame, EndFrame].
type Segment struct {
	Index      int
	StartFrame int
	EndFrame   int
}

func (s Segment) Frames() int { return s.EndFrame - s.StartFrame + 1 }

type TimeSegment struct {
	Index  int
	Start  time.Duration
	Length time.Duration
}

// SwapJob is everything one engine invocation needs. Nil trim bounds mean
// the whole target is processed.
type SwapJob struct {
	Sources   []string
	Target    string
	Output    string
	TrimStart *int
	TrimEnd   *int
}

type SegmentResult struct {
	Segment Segment
	Output  string
	Err     error
}

func (r SegmentResult) OK() bool { return r.Err == nil }

type VideoReport struct {
	Info    VideoInfo
	Results []SegmentResult
	Merged  string
}

// Succeeded returns the outputs of successful segments in segment order.
func (r VideoReport) Succeeded() []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.OK() {
			out = append(out, res.Output)
		}
	}
	return out
}

func (r VideoReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}
