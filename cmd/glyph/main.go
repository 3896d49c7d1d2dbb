// Glyph — инструмент командной строки для распознавания текста
// через внешний OCR-движок (EasyOCR).
//
// Использование:
//
//	glyph -i IMAGE [-l en,ch_sim] [-o json|text|detailed] [-d 0|1]
//	glyph [--server | --server-stop | --server-status]
//	glyph <command> [flags]
//
// Команды:
//
//	batch     Последовательная обработка файлов
//	parallel  Параллельная обработка файлов
//	watch     Обработка новых файлов в директории
//	config    Управление конфигурацией
//	inspect   Формат и размеры изображений
//	submit    Постановка заданий в очередь glyph-watcher
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shaiso/Glyph/internal/cli"
	"github.com/shaiso/Glyph/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Error: load .env:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var flags cli.GlobalFlags
	var logger *slog.Logger

	rootCmd := &cobra.Command{
		Use:           "glyph",
		Short:         "Glyph — OCR for 80+ languages powered by EasyOCR",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = telemetry.SetupLogger(telemetry.LogOptions{
				Writer:  os.Stderr,
				Format:  "text",
				Verbose: flags.Verbose,
			})
		},
	}

	flags.Register(rootCmd)

	sessionFn := func() (*cli.Session, error) { return cli.NewSession(flags, logger) }
	outputFn := func() *cli.Output { return cli.NewOutput(flags.JSON) }

	cli.BindRecognize(rootCmd, sessionFn, outputFn)
	rootCmd.AddCommand(
		cli.NewBatchCmd(sessionFn, outputFn),
		cli.NewParallelCmd(sessionFn, outputFn),
		cli.NewWatchCmd(sessionFn, outputFn),
		cli.NewConfigCmd(sessionFn, outputFn),
		cli.NewInspectCmd(outputFn),
		cli.NewSubmitCmd(sessionFn, outputFn),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
