package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Glyph/internal/config"
	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/engine"
	"github.com/shaiso/Glyph/internal/format"
	"github.com/shaiso/Glyph/internal/orchestrator"
	"github.com/shaiso/Glyph/internal/telemetry"
)

// runner — общий интерфейс Batch и Parallel.
type runner interface {
	Run(ctx context.Context, files []string, params config.Params) []domain.BatchItemOutcome
}

// buildFunc создаёт оркестратор для набора файлов.
type buildFunc func(client engine.Client, opts orchestrator.Options, batch config.BatchSettings) runner

// runFlags — флаги batch и parallel.
type runFlags struct {
	report     string
	outputDir  string
	store      bool
	publish    bool
	noProgress bool
}

func (f *runFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.report, "report", format.JSON, "Report format: "+format.ReportFormats())
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Save per-file results as <name>.json (default from [batch] output_dir)")
	cmd.Flags().BoolVar(&f.store, "store", false, "Persist outcomes to PostgreSQL (GLYPH_DB_URL)")
	cmd.Flags().BoolVar(&f.publish, "publish", false, "Publish outcomes to RabbitMQ (GLYPH_RABBITMQ_URL)")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar")
}

// NewBatchCmd создаёт команду последовательной обработки.
func NewBatchCmd(sessionFn SessionFunc, outputFn OutputFunc) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "batch FILE...",
		Short: "Recognize files one after another",
		Long: `Recognize files strictly in order through a single engine client.

A failed file does not stop the batch unless [batch] continue_on_error = false;
in that case the remaining files are reported as aborted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd.Context(), sessionFn, outputFn, f, domain.ModeBatch, args,
				func(client engine.Client, opts orchestrator.Options, batch config.BatchSettings) runner {
					return orchestrator.NewBatch(client, opts).AbortOnError(!batch.ContinueOnError)
				})
		},
	}

	f.bind(cmd)
	return cmd
}

// NewParallelCmd создаёт команду параллельной обработки.
func NewParallelCmd(sessionFn SessionFunc, outputFn OutputFunc) *cobra.Command {
	var (
		f       runFlags
		workers int
	)

	cmd := &cobra.Command{
		Use:   "parallel FILE...",
		Short: "Recognize files with a pool of workers",
		Long: `Recognize files concurrently. Outcomes keep the order of the arguments.

Every file is processed: failures never cancel the other workers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers < 0 {
				return domain.NewValidationError("workers", "must not be negative")
			}
			return runFiles(cmd.Context(), sessionFn, outputFn, f, domain.ModeParallel, args,
				func(client engine.Client, opts orchestrator.Options, _ config.BatchSettings) runner {
					return orchestrator.NewParallel(client, workers, opts)
				})
		},
	}

	f.bind(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of workers (default: number of CPUs)")
	return cmd
}

// runFiles обрабатывает файлы и выводит отчёт. Неудачные файлы
// попадают в отчёт и не меняют код выхода.
func runFiles(ctx context.Context, sessionFn SessionFunc, outputFn OutputFunc, f runFlags, mode domain.Mode, files []string, build buildFunc) error {
	if !format.IsReportFormat(f.report) {
		return domain.NewValidationError("report", fmt.Sprintf("invalid report format %q, use: %s", f.report, format.ReportFormats()))
	}

	s, err := sessionFn()
	if err != nil {
		return err
	}
	out := outputFn()

	client, err := s.Client(ctx)
	if err != nil {
		return err
	}

	sinks, closeSinks, err := s.Sinks(ctx, f.store, f.publish)
	if err != nil {
		return err
	}
	defer closeSinks()

	runID := uuid.New()

	var observer orchestrator.Observer = summaryObserver{out: out}
	if !f.noProgress {
		observer = newProgressObserver(out, len(files), mode == domain.ModeBatch)
	}

	batch := s.Config.Batch()
	if f.outputDir != "" {
		batch.OutputDir = f.outputDir
	}

	telemetry.WithRunID(s.Logger, runID.String()).Info("run started", "mode", mode, "files", len(files))
	outcomes := build(client, orchestrator.Options{
		Observer: observer,
		Sinks:    sinks,
		Logger:   s.Logger,
		RunID:    runID,
	}, batch).Run(ctx, files, s.Params)

	if batch.OutputDir != "" {
		saveOutcomes(out, batch.OutputDir, outcomes, s.Params.Detail)
	}

	return out.Report(f.report, outcomes)
}

// saveOutcomes пишет результат каждого успешного файла в dir.
func saveOutcomes(out *Output, dir string, outcomes []domain.BatchItemOutcome, detail domain.Detail) {
	for _, o := range outcomes {
		if !o.Success {
			continue
		}
		if _, err := orchestrator.SaveResults(dir, o.File, o.Results, detail); err != nil {
			out.Error(err.Error())
		}
	}
}
