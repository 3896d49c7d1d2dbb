package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shaiso/Glyph/internal/mq"
)

// NewSubmitCmd создаёт команду постановки файлов в очередь glyph-watcher.
//
// Пути передаются как абсолютные: файлы должны быть видны демону
// по тем же путям.
func NewSubmitCmd(sessionFn SessionFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "submit FILE...",
		Short: "Queue files for recognition by glyph-watcher",
		Long: `Publish a job.recognize message for every file to the glyph.jobs exchange
(GLYPH_RABBITMQ_URL). The --profile flag is passed along with each job.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sessionFn()
			if err != nil {
				return err
			}
			out := outputFn()
			ctx := cmd.Context()

			conn, err := mq.Dial(mq.URL(), s.Logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := mq.SetupTopology(conn); err != nil {
				return err
			}
			publisher := mq.NewPublisher(conn, s.Logger)

			submitted := 0
			for _, path := range args {
				abs, err := filepath.Abs(path)
				if err != nil {
					out.Error(fmt.Sprintf("%s: %v", path, err))
					continue
				}
				if err := publisher.PublishJob(ctx, mq.JobPayload{Path: abs, Profile: s.Flags.Profile}); err != nil {
					return err
				}
				submitted++
			}

			out.Success(fmt.Sprintf("Submitted %d job(s)", submitted))
			return nil
		},
	}
}
