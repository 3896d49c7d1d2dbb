package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/shaiso/Glyph/internal/config"
)

// NewConfigCmd создаёт группу команд для работы с конфигурацией.
func NewConfigCmd(sessionFn SessionFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(
		newConfigInitCmd(outputFn),
		newConfigShowCmd(sessionFn, outputFn),
		newConfigProfilesCmd(sessionFn, outputFn),
	)

	return cmd
}

func newConfigInitCmd(outputFn OutputFunc) *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				p, err := config.UserPath()
				if err != nil {
					return err
				}
				path = p
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("%w: create %s: %v", config.ErrConfigIO, filepath.Dir(path), err)
			}
			if err := os.WriteFile(path, []byte(config.DefaultTemplate()), 0o644); err != nil {
				return fmt.Errorf("%w: write %s: %v", config.ErrConfigIO, path, err)
			}

			outputFn().Success("Config written to " + path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Destination (default: user config file)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

func newConfigShowCmd(sessionFn SessionFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging all layers, the selected profile
and command-line flags. Files that took part in the merge are listed first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sessionFn()
			if err != nil {
				return err
			}
			out := outputFn()

			if out.jsonMode {
				out.JSON(map[string]any{
					"sources": s.Config.Sources,
					"params":  s.Params,
					"server":  s.ServerSettings(),
					"batch":   s.Config.Batch(),
				})
				return nil
			}

			for _, src := range s.Config.Sources {
				fmt.Fprintf(out.w, "# source: %s\n", src)
			}
			if len(s.Config.Sources) == 0 {
				fmt.Fprintln(out.w, "# source: built-in defaults")
			}
			return toml.NewEncoder(out.w).Encode(effectiveLayer(s))
		},
	}
}

func newConfigProfilesCmd(sessionFn SessionFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List profiles with their effective parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sessionFn()
			if err != nil {
				return err
			}
			out := outputFn()

			names := s.Config.ProfileNames()
			slices.Sort(names)

			profiles := make(map[string]config.Params, len(names))
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				p, err := s.Config.Params(name)
				if err != nil {
					return err
				}
				profiles[name] = p
				rows = append(rows, []string{
					name,
					strings.Join(p.Languages, ","),
					strconv.FormatBool(p.GPU),
					p.Output,
					strconv.Itoa(int(p.Detail)),
				})
			}

			out.Print([]string{"NAME", "LANGUAGES", "GPU", "OUTPUT", "DETAIL"}, rows, profiles)
			return nil
		},
	}
}

// effectiveLayer собирает слой с эффективными значениями всех секций.
func effectiveLayer(s *Session) config.Layer {
	p := s.Params
	detail := int(p.Detail)
	server := s.ServerSettings()
	batch := s.Config.Batch()

	return config.Layer{
		Default: &config.Overrides{
			Languages: p.Languages,
			GPU:       &p.GPU,
			Output:    &p.Output,
			Detail:    &detail,
		},
		Server: &config.ServerSection{
			Enabled:   &server.Enabled,
			Port:      &server.Port,
			Host:      &server.Host,
			AutoStart: &server.AutoStart,
		},
		Batch: &config.BatchSection{
			OutputDir:       &batch.OutputDir,
			ContinueOnError: &batch.ContinueOnError,
		},
		Profiles: s.Config.Profiles,
	}
}
