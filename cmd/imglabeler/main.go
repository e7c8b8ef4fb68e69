// Command imglabeler pages through a directory of images and records one
// label per image in a CSV file.
package main

import (
	"fmt"
	"os"
	"strings"

	"imglabeler/internal/config"
	"imglabeler/internal/labelfile"
	"imglabeler/internal/logger"
	"imglabeler/internal/scan"
	"imglabeler/internal/ui"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. run receives the validated session;
// tests pass a stub instead of starting the GUI.
func NewRootCmd(run func(cfg config.Session) error) *cobra.Command {
	var (
		imgPath   string
		labels    []string
		labelFile string
		output    string
		exts      []string
		onCorrupt string
		dbPath    string
		noIndex   bool
		resume    bool
		skipCount int
		logLevel  string
	)

	rootCmd := &cobra.Command{
		Use:   "imglabeler --imgpath DIR (--labels L1 L2 ... | --labelfile FILE)",
		Short: "Label the images of a directory, one label per image",
		Long: `imglabeler shows the images of a directory one at a time, sorted by
path. Clicking a label button (or pressing 1-9) records the label for the
image on display and moves on to the next one. Every change is saved to the
output CSV file, and labels saved by an earlier run are restored at start.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// --labels Cat Dog leaves Dog as a positional argument.
			all := append(append([]string(nil), labels...), args...)
			if labelFile != "" {
				// cobra already rejects --labels together with --labelfile.
				if len(args) > 0 {
					return config.Errorf("unexpected arguments %s: the labels come from --labelfile %s", strings.Join(args, " "), labelFile)
				}
				var err error
				if all, err = config.LoadLabelFile(labelFile); err != nil {
					return err
				}
			}

			policy, err := labelfile.ParsePolicy(onCorrupt)
			if err != nil {
				return config.Wrap(err, "invalid --on-corrupt")
			}
			if _, err := logger.ParseLevel(logLevel); err != nil {
				return config.Wrap(err, "invalid --log-level")
			}

			cfg := config.Session{
				ImageDir:      imgPath,
				Labels:        all,
				OutputPath:    output,
				Extensions:    exts,
				CorruptPolicy: policy,
				IndexDir:      dbPath,
				NoIndex:       noIndex,
				Resume:        resume,
				SkipCount:     skipCount,
				LogLevel:      logLevel,
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&imgPath, "imgpath", "", "Directory holding the images to label")
	flags.StringSliceVar(&labels, "labels", nil, "Labels to choose from (at least two)")
	flags.StringVar(&labelFile, "labelfile", "", "CSV or YAML file listing the labels")
	flags.StringVarP(&output, "output", "o", config.DefaultOutput, "CSV file the labels are saved to")
	flags.StringSliceVar(&exts, "ext", scan.DefaultExtensions, "Image file extensions to include")
	flags.StringVar(&onCorrupt, "on-corrupt", labelfile.Abort.String(), "What to do with malformed rows in the output file: abort, skip or discard")
	flags.StringVar(&dbPath, "dbpath", "", "Directory of the label index database (default: one per label file under the user config dir)")
	flags.BoolVar(&noIndex, "no-index", false, "Do not maintain the label index")
	flags.BoolVar(&resume, "resume", false, "Start at the first unlabeled image")
	flags.IntVar(&skipCount, "skip-count", config.DefaultSkipCount, "Images skipped by Page Up / Page Down")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	rootCmd.MarkFlagRequired("imgpath")
	rootCmd.MarkFlagsMutuallyExclusive("labels", "labelfile")
	rootCmd.MarkFlagsOneRequired("labels", "labelfile")

	return rootCmd
}

func runGUI(cfg config.Session) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	zl := logger.NewConsole(level)
	return ui.Run(cfg, logger.Func(zl, "imglabeler"))
}

func main() {
	if err := NewRootCmd(runGUI).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
