package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/imageprobe"
)

// rootFlags — локальные флаги корневой команды.
type rootFlags struct {
	input        string
	serverStart  bool
	serverStop   bool
	serverStatus bool
	serverHost   string
	serverPort   int
}

// BindRecognize добавляет в root распознавание одного изображения (-i)
// и управление сервером движка (--server, --server-stop, --server-status).
func BindRecognize(root *cobra.Command, sessionFn SessionFunc, outputFn OutputFunc) {
	var f rootFlags

	flags := root.Flags()
	flags.StringVarP(&f.input, "input", "i", "", "Input image file path")
	flags.BoolVar(&f.serverStart, "server", false, "Start the engine server in the background")
	flags.BoolVar(&f.serverStop, "server-stop", false, "Stop the engine server")
	flags.BoolVar(&f.serverStatus, "server-status", false, "Show engine server status")
	flags.StringVar(&f.serverHost, "server-host", "", "Host for --server (default from [server] host)")
	flags.IntVar(&f.serverPort, "server-port", 0, "Port for --server (default from [server] port)")

	root.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := sessionFn()
		if err != nil {
			return err
		}
		out := outputFn()

		switch {
		case f.serverStop:
			return stopServer(s, out)
		case f.serverStatus:
			return serverStatus(s, out)
		case f.serverStart:
			return startServer(cmd.Context(), s, out, f)
		}

		if f.input == "" {
			return domain.NewValidationError("input", "required flag -i/--input not set")
		}
		return recognize(cmd.Context(), s, out, f.input)
	}
}

// recognize распознаёт один файл и выводит результат в stdout.
func recognize(ctx context.Context, s *Session, out *Output, path string) error {
	if _, err := os.Stat(path); err != nil {
		return domain.NewValidationError("input", fmt.Sprintf("input file does not exist: %s", path))
	}

	logger := s.Logger.With("file", path)
	if info, err := imageprobe.Probe(path); err != nil {
		logger.Debug("image header not recognized", "error", err)
	} else {
		logger.Debug("image", "format", info.Format, "width", info.Width, "height", info.Height)
	}

	client, err := s.Client(ctx)
	if err != nil {
		return err
	}

	logger.Info("processing image", "languages", s.Params.Languages, "gpu", s.Params.GPU)
	regions, err := client.Invoke(ctx, s.Params.Request(path))
	if err != nil {
		return err
	}

	if err := out.Results(s.Params.Output, regions, s.Params.Detail); err != nil {
		return err
	}
	out.Success(fmt.Sprintf("OCR completed. Found %d text region(s).", len(regions)))
	return nil
}

func startServer(ctx context.Context, s *Session, out *Output, f rootFlags) error {
	settings := s.ServerSettings()
	if f.serverHost != "" {
		settings.Host = f.serverHost
	}
	if f.serverPort != 0 {
		settings.Port = f.serverPort
	}
	if err := settings.Validate(); err != nil {
		return domain.NewValidationError("server-port", err.Error())
	}

	h, err := s.Lifecycle().Start(ctx, settings.Host, settings.Port)
	if err != nil {
		return err
	}
	out.Success(fmt.Sprintf("Server started at %s (pid %d, log %s)", h.URL, h.PID, h.LogPath))
	return nil
}

func stopServer(s *Session, out *Output) error {
	if s.Lifecycle().Stop() {
		out.Success("Server stopped")
	} else {
		out.Success("Server is not running")
	}
	return nil
}

func serverStatus(s *Session, out *Output) error {
	st := s.Lifecycle().Status()
	if out.jsonMode {
		out.JSON(st)
		return nil
	}
	if st.Running {
		out.Success(fmt.Sprintf("Server is running (pid %d, %s)", st.PID, s.ServerURL()))
	} else {
		out.Success("Server is not running")
	}
	return nil
}
