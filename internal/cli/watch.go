package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/orchestrator"
	"github.com/shaiso/Glyph/internal/telemetry"
)

// NewWatchCmd создаёт команду обработки новых файлов в директории.
func NewWatchCmd(sessionFn SessionFunc, outputFn OutputFunc) *cobra.Command {
	var (
		recursive  bool
		archiveDir string
		extensions []string
		debounce   time.Duration
		outputDir  string
		store      bool
		publish    bool
	)

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Recognize new images as they appear in a directory",
		Long: `Watch DIR and recognize every new or modified image once it has been
quiet for the debounce interval. Files are processed one at a time.

Stop with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return domain.NewValidationError("dir", fmt.Sprintf("not a directory: %s", dir))
			}

			s, err := sessionFn()
			if err != nil {
				return err
			}
			out := outputFn()
			ctx := cmd.Context()

			client, err := s.Client(ctx)
			if err != nil {
				return err
			}

			sinks, closeSinks, err := s.Sinks(ctx, store, publish)
			if err != nil {
				return err
			}
			defer closeSinks()

			if outputDir == "" {
				outputDir = s.Config.Batch().OutputDir
			}

			runID := uuid.New()
			logger := telemetry.WithRunID(s.Logger, runID.String())

			watcher, err := orchestrator.NewWatcher(orchestrator.WatchConfig{
				Root:       dir,
				Recursive:  recursive,
				Extensions: extensions,
				ArchiveDir: archiveDir,
				Debounce:   debounce,
				Logger:     logger,
				Process: orchestrator.NewProcessor(orchestrator.ProcessorConfig{
					Client:    client,
					Params:    s.Params,
					OutputDir: outputDir,
					Output:    out.w,
					Options: orchestrator.Options{
						Sinks:  sinks,
						Logger: logger,
						RunID:  runID,
					},
				}),
			})
			if err != nil {
				return err
			}

			go func() {
				select {
				case <-watcher.Ready():
					out.Success(fmt.Sprintf("Watching %s (Ctrl+C to stop)", dir))
				case <-ctx.Done():
				}
			}()

			err = watcher.Run(ctx)
			if errors.Is(err, context.Canceled) {
				st := watcher.Stats()
				out.Success(fmt.Sprintf("Stopped: %d processed, %d failed, %d archived", st.Processed, st.Failed, st.Archived))
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch subdirectories too")
	cmd.Flags().StringVar(&archiveDir, "archive", "", "Move successfully processed files into this directory")
	cmd.Flags().StringSliceVar(&extensions, "ext", orchestrator.DefaultExtensions, "Allowed file extensions")
	cmd.Flags().DurationVar(&debounce, "debounce", orchestrator.DefaultDebounce, "Quiet period before a file is processed")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Save results as <name>.json instead of printing them")
	cmd.Flags().BoolVar(&store, "store", false, "Persist outcomes to PostgreSQL (GLYPH_DB_URL)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish outcomes to RabbitMQ (GLYPH_RABBITMQ_URL)")

	return cmd
}
