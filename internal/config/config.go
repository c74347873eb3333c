package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Env holds the settings that come from the process environment.
type Env struct {
	FFmpegPath  string `env:"FFMPEG_PATH"  envDefault:"ffmpeg"`
	FFprobePath string `env:"FFPROBE_PATH" envDefault:"ffprobe"`

	FacefusionINI     string   `env:"FACEFUSION_INI"`
	FacefusionCommand []string `env:"FACEFUSION_COMMAND" envSeparator:" " envDefault:"python run.py"`
	FacefusionDir     string   `env:"FACEFUSION_DIR"`

	LogLevel     string `env:"LOG_LEVEL"                   envDefault:"info"`
	MetricsAddr  string `env:"METRICS_ADDR"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func Load() (*Env, error) {
	cfg := &Env{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Job is the optional YAML job file. Zero values mean "not set" and leave
// the environment or flag value in place.
type Job struct {
	Sources       string `yaml:"sources"`
	Target        string `yaml:"target"`
	Out           string `yaml:"out"`
	SegmentFrames int    `yaml:"segment_frames"`
	Limit         int    `yaml:"limit"`

	Engine EngineConfig `yaml:"engine"`
}

type EngineConfig struct {
	INI     string   `yaml:"ini"`
	Command []string `yaml:"command"`
	Dir     string   `yaml:"dir"`
}

const (
	DefaultSegmentFrames = 10000
	DefaultLimit         = 100
	DefaultOut           = "output"
)

func DefaultJob() Job {
	return Job{
		Out:           DefaultOut,
		SegmentFrames: DefaultSegmentFrames,
		Limit:         DefaultLimit,
	}
}

// LoadJob reads a job file on top of DefaultJob. Unknown keys are rejected so
// a typo does not silently fall back to a default.
func LoadJob(path string) (Job, error) {
	job := DefaultJob()

	f, err := os.Open(path)
	if err != nil {
		return job, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&job); err != nil {
		return job, fmt.Errorf("parse job file %s: %w", path, err)
	}
	return job, nil
}

// ApplyEnv fills engine and tool settings the job file left empty.
func (j Job) ApplyEnv(e *Env) Job {
	if j.Engine.INI == "" {
		j.Engine.INI = e.FacefusionINI
	}
	if len(j.Engine.Command) == 0 {
		j.Engine.Command = e.FacefusionCommand
	}
	if j.Engine.Dir == "" {
		j.Engine.Dir = e.FacefusionDir
	}
	return j
}
