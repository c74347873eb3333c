package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SegmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segswap_segments_total",
		Help: "Segments sent through the swap engine, by status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "segswap_stage_duration_seconds",
		Help:    "Duration of workflow stages",
		Buckets: []float64{0.1, 1, 5, 30, 60, 300, 900, 3600},
	}, []string{"stage"})

	FramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "segswap_frames_total",
		Help: "Frames covered by successfully swapped segments",
	})

	PartsExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "segswap_parts_extracted_total",
		Help: "Parts cut from source videos with stream copy",
	})
)
