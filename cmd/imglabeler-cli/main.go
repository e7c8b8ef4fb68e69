// Command imglabeler-cli inspects the labels saved by imglabeler and
// maintains the label index.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"imglabeler/internal/config"
	"imglabeler/internal/labelfile"
	"imglabeler/internal/labelindex"
	"imglabeler/internal/logger"
	"imglabeler/internal/scan"
	"imglabeler/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Options are the persistent flags shared by every command.
type Options struct {
	DBPath    string
	Output    string
	OnCorrupt labelfile.CorruptPolicy
	Logger    func(string)
}

// NewRootCmd creates the root command for the CLI application.
// It takes a function `getService` which is responsible for opening the
// label file and index behind the service. This allows tests to inject
// test-specific instances.
func NewRootCmd(getService func(opts Options) (*service.Service, error)) *cobra.Command {
	var (
		svc       *service.Service
		opts      Options
		dbPath    string
		output    string
		onCorrupt string
		logLevel  string
	)

	rootCmd := &cobra.Command{
		Use:           "imglabeler-cli",
		Short:         "imglabeler CLI - inspect saved labels",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			policy, err := labelfile.ParsePolicy(onCorrupt)
			if err != nil {
				return err
			}
			level, err := logger.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			zl := logger.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}, level)
			opts = Options{
				DBPath:    dbPath,
				Output:    output,
				OnCorrupt: policy,
				Logger:    logger.Func(zl, "cli"),
			}
			return nil
		},
	}

	// withService opens the service for the duration of one command. The
	// index is closed even when the command fails, releasing its file lock.
	withService := func(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			var err error
			svc, err = getService(opts)
			if err != nil {
				return fmt.Errorf("failed to initialize service: %w", err)
			}
			defer func() {
				if svc.Index != nil {
					svc.Index.Close()
				}
			}()
			return run(cmd, args)
		}
	}

	// List saved labels
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the saved labels in file order",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			entries, err := svc.Entries()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				cmd.Println("No labels saved.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "IMG\tLABEL\tFILE")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\n", e.ImageIndex, e.Label, e.ImagePath)
			}
			return w.Flush()
		}),
	}
	rootCmd.AddCommand(listCmd)

	// Label counts
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "List all labels with image counts",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			labels, err := svc.ListAllLabels()
			if err != nil {
				return err
			}
			if len(labels) == 0 {
				cmd.Println("No labels indexed.")
				return nil
			}
			for _, l := range labels {
				cmd.Printf("%s (%d)\n", l.Name, l.Count)
			}
			return nil
		}),
	}
	rootCmd.AddCommand(summaryCmd)

	// Find images by label
	findByLabelCmd := &cobra.Command{
		Use:   "find-by-label [label]",
		Short: "List images with a given label",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			images, err := svc.ListImagesForLabel(args[0])
			if err != nil {
				return err
			}
			if len(images) == 0 {
				cmd.Printf("No images found for label '%s'.\n", args[0])
				return nil
			}
			for _, img := range images {
				cmd.Println(img)
			}
			return nil
		}),
	}
	rootCmd.AddCommand(findByLabelCmd)

	// Label of one image
	showCmd := &cobra.Command{
		Use:   "show [image]",
		Short: "Show the label of an image",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			rec, ok, err := svc.LabelForImage(args[0])
			if err != nil {
				return err
			}
			if ok {
				cmd.Printf("%s: %s (label %d, image %d)\n", args[0], rec.Label, rec.LabelIndex, rec.ImageIndex)
				return nil
			}
			cmd.Printf("No label recorded for %s.\n", args[0])
			return nil
		}),
	}
	rootCmd.AddCommand(showCmd)

	// Rebuild the index
	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the label index from the label file",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			n, err := svc.Reindex()
			if err != nil {
				return err
			}
			cmd.Printf("Indexed %d labels from %s into %s.\n", n, output, svc.Index.Path())
			return nil
		}),
	}
	rootCmd.AddCommand(reindexCmd)

	// Compare saved labels with the image directory
	var checkDir string
	var checkExts []string
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Report saved labels whose image is no longer at the recorded position",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			stale, err := svc.Check(checkDir, checkExts)
			if err != nil {
				return err
			}
			if len(stale) == 0 {
				cmd.Printf("All saved labels match the images in %s.\n", checkDir)
				return nil
			}
			cmd.Printf("%d saved labels do not match the images in %s:\n", len(stale), checkDir)
			for _, e := range stale {
				cmd.Printf("  %d: %s (%s)\n", e.ImageIndex, e.ImagePath, e.Label)
			}
			return nil
		}),
	}
	checkCmd.Flags().StringVar(&checkDir, "imgpath", "", "Image directory the labels were recorded for")
	checkCmd.Flags().StringSliceVar(&checkExts, "ext", scan.DefaultExtensions, "Image file extensions to include")
	checkCmd.MarkFlagRequired("imgpath")
	rootCmd.AddCommand(checkCmd)

	// Clean index
	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove index entries for missing files",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			n, err := svc.CleanIndex()
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d index entries for missing files.\n", n)
			return nil
		}),
	}
	rootCmd.AddCommand(cleanCmd)

	rootCmd.PersistentFlags().StringVar(&dbPath, "dbpath", "", "Directory of the label index database (default: one per label file under the user config dir)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", config.DefaultOutput, "Label CSV file")
	rootCmd.PersistentFlags().StringVar(&onCorrupt, "on-corrupt", labelfile.Abort.String(), "What to do with malformed rows: abort, skip or discard")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	return rootCmd
}

// openService opens the label file at opts.Output and its index. Without
// --dbpath the index lives in the label file's own directory under the
// user config dir.
func openService(opts Options) (*service.Service, error) {
	source, err := filepath.Abs(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve label file %s: %w", opts.Output, err)
	}
	dir := opts.DBPath
	if dir == "" {
		if dir, err = labelindex.DirFor(source); err != nil {
			return nil, err
		}
	}
	idx, err := labelindex.Open(dir, labelindex.LoggerFunc(opts.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open label index: %w", err)
	}
	store := labelfile.NewStore(opts.Output, opts.OnCorrupt, labelfile.LoggerFunc(opts.Logger))
	svc := service.NewService(store, idx, opts.Logger)
	svc.Source = source
	return svc, nil
}

func main() {
	rootCmd := NewRootCmd(openService)
	rootCmd.SetOut(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
