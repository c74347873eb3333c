package facefusion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/forPelevin/segswap/internal/ports"
	"github.com/forPelevin/segswap/internal/settings"
	"github.com/forPelevin/segswap/internal/types"
)

// DefaultCommand starts the engine in the directory holding its ini file.
var DefaultCommand = []string{"python", "run.py"}

// Adapter drives the engine through its ini file. The file is shared state:
// use one Adapter per ini file and never call Swap concurrently.
type Adapter struct {
	command []string
	dir     string
	ini     string
	log     *zap.Logger
}

func New(iniPath string, command []string, dir string, log *zap.Logger) *Adapter {
	if len(command) == 0 {
		command = DefaultCommand
	}
	if dir == "" {
		dir = filepath.Dir(iniPath)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		command: append([]string(nil), command...),
		dir:     dir,
		ini:     iniPath,
		log:     log,
	}
}

func (a *Adapter) Swap(ctx context.Context, job types.SwapJob) (string, error) {
	changes := Changes(job)
	if _, err := settings.Update(a.ini, changes, a.log); err != nil {
		return "", &ports.TransformStepError{Err: err}
	}
	defer func() {
		if err := settings.Clear(a.ini, changes, a.log); err != nil {
			a.log.Warn("clear engine settings", zap.Error(err))
		}
	}()

	cmd := exec.CommandContext(ctx, a.command[0], a.command[1:]...)
	cmd.Dir = a.dir
	b, err := cmd.CombinedOutput()
	if err != nil {
		return "", &ports.TransformStepError{Output: string(b), Err: fmt.Errorf("%s failed: %w", strings.Join(a.command, " "), err)}
	}

	if _, err := os.Stat(job.Output); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &ports.TransformStepError{Output: string(b), Err: fmt.Errorf("engine produced no output at %s", job.Output)}
		}
		return "", &ports.TransformStepError{Err: err}
	}
	return job.Output, nil
}

// Changes maps a job onto the engine's ini keys. Trim keys are only touched
// when the job carries bounds.
func Changes(job types.SwapJob) []settings.Change {
	out := []settings.Change{
		settings.Set("general", "source_paths", strings.Join(job.Sources, " ")),
		settings.Set("general", "target_path", job.Target),
		settings.Set("general", "output_path", job.Output),
	}
	if job.TrimStart != nil {
		out = append(out, settings.Set("frame_extraction", "trim_frame_start", strconv.Itoa(*job.TrimStart)))
	}
	if job.TrimEnd != nil {
		out = append(out, settings.Set("frame_extraction", "trim_frame_end", strconv.Itoa(*job.TrimEnd)))
	}
	return append(out, settings.Set("misc", "headless", "True"))
}
