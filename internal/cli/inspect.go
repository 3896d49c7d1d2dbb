package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Glyph/internal/imageprobe"
)

// NewInspectCmd создаёт команду просмотра формата и размеров изображений.
// Движок не вызывается.
func NewInspectCmd(outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Show image format and dimensions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			infos := make([]imageprobe.Info, 0, len(args))
			rows := make([][]string, 0, len(args))
			for _, path := range args {
				info, err := imageprobe.Probe(path)
				if err != nil {
					out.Error(err.Error())
					continue
				}
				infos = append(infos, info)
				rows = append(rows, []string{
					info.Path,
					info.Format,
					strconv.Itoa(info.Width),
					strconv.Itoa(info.Height),
				})
			}

			out.Print([]string{"FILE", "FORMAT", "WIDTH", "HEIGHT"}, rows, infos)
			return nil
		},
	}
}
