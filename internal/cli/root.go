// Package cli implements crushctl, the operator command line for the crush
// service.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/oggyb/crush-connector/internal/config"
	"github.com/oggyb/crush-connector/internal/crush"
	"github.com/oggyb/crush-connector/internal/db"
	"github.com/oggyb/crush-connector/internal/logger"
	"github.com/oggyb/crush-connector/internal/mail"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags and the engine factory shared by commands.
type RootOptions struct {
	Format string // "json" | "text"
	Addr   string // gRPC server for remote commands

	// Open builds the engine used by local commands. Defaults to one wired
	// from environment configuration.
	Open func() (*crush.Engine, error)
}

// NewRootCommand creates the crushctl root command.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts == nil {
		opts = &RootOptions{}
	}
	if opts.Open == nil {
		opts.Open = OpenFromEnv
	}

	cmd := &cobra.Command{
		Use:   "crushctl",
		Short: "Operate the crush connector",
		Long:  "Administer people, refresh checkpoints and matches of the anonymous crush service.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range ValidFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
		},
		SilenceUsage:  true,
		SilenceErrors: true, // main prints the error once
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", defaultAddr(), "gRPC server address for remote commands")

	// Add subcommands
	cmd.AddCommand(NewCheckpointsCommand(opts))
	cmd.AddCommand(NewPeopleCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewQuotaCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))

	return cmd
}

// OpenFromEnv wires an engine from environment configuration. Logs go to
// stderr so that command output stays parseable.
func OpenFromEnv() (*crush.Engine, error) {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{
		Level:     cfg.Log.Level,
		Format:    logger.Format(cfg.Log.Format),
		Component: "crushctl",
	}, os.Stderr)

	database, err := db.NewDB(cfg)
	if err != nil {
		return nil, err
	}
	sender, err := mail.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return crush.NewEngine(database, crush.SettingsFromConfig(cfg), sender, log)
}

func defaultAddr() string {
	cfg := config.New()
	return cfg.GRPC.Host + ":" + cfg.GRPC.Port
}

// output writes v as JSON, or calls text for the text format.
func output(opts *RootOptions, w io.Writer, v any, text func(w io.Writer)) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
