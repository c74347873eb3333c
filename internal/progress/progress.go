package progress

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/forPelevin/segswap/internal/ports"
)

// Factory creates a bar for a known amount of work.
type Factory func(total int, desc string) ports.Progress

// Terminal draws bars on stderr when it is a terminal and stays silent
// otherwise, so logs piped to a file are not littered with redraws.
func Terminal() Factory {
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return Nop()
	}
	return Writer(os.Stderr)
}

func Writer(w io.Writer) Factory {
	return func(total int, desc string) ports.Progress {
		return progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
		)
	}
}

func Nop() Factory {
	return func(int, string) ports.Progress { return nop{} }
}

type nop struct{}

func (nop) Add(int) error  { return nil }
func (nop) Finish() error { return nil }
