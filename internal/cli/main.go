package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "segswap",
		Short:        "Swap faces in long videos segment by segment",
		SilenceUsage: true,
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("job", "", "YAML job file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address")

	root.AddCommand(
		newVideoCmd(),
		newImagesCmd(),
		newSplitCmd(),
		newMergeCmd(),
		newProbeCmd(),
	)
	return root
}

func newVideoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video [target]",
		Short: "Swap faces across a video and merge the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runVideo,
	}
	cmd.Flags().String("sources", "", "Directory of source face images")
	cmd.Flags().String("out", "output", "Output directory")
	cmd.Flags().Int("segment-frames", 10000, "Frames per engine run")
	cmd.Flags().Int("limit", 100, "Max source images (0 = all)")
	return cmd
}

func newImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images [target-dir]",
		Short: "Swap faces in a directory of images",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runImages,
	}
	cmd.Flags().String("sources", "", "Directory of source face images")
	cmd.Flags().String("out", "output", "Output directory")
	cmd.Flags().Int("limit", 100, "Max source images (0 = all)")
	return cmd
}

func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <input>",
		Short: "Cut a video into parts with stream copy",
		Args:  cobra.ExactArgs(1),
		RunE:  runSplit,
	}
	cmd.Flags().String("out", "output", "Output directory")
	cmd.Flags().Int("frames", 0, "Frames per part")
	cmd.Flags().Float64("seconds", 0, "Seconds per part")
	cmd.MarkFlagsOneRequired("frames", "seconds")
	cmd.MarkFlagsMutuallyExclusive("frames", "seconds")
	return cmd
}

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <output> <input>...",
		Short: "Concatenate videos with stream copy",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runMerge,
	}
}

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <input>",
		Short: "Print frame rate, frame count and duration",
		Args:  cobra.ExactArgs(1),
		RunE:  runProbe,
	}
}
