package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oggyb/crush-connector/internal/config"
	"github.com/oggyb/crush-connector/internal/crush"
)

// NewCheckpointsCommand groups refresh checkpoint administration.
func NewCheckpointsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "Manage refresh checkpoints",
	}
	cmd.AddCommand(newCheckpointsAddCommand(opts))
	cmd.AddCommand(newCheckpointsListCommand(opts))
	cmd.AddCommand(newCheckpointsImportCommand(opts))
	return cmd
}

func newCheckpointsAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <YYYY-MM-DD>",
		Short: "Provision a refresh checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := config.ParseDate(args[0])
			if err != nil {
				return err
			}
			engine, err := opts.Open()
			if err != nil {
				return err
			}
			cp, err := engine.AddCheckpoint(cmd.Context(), date)
			if err != nil {
				return err
			}
			day := cp.Date.Format(config.DateLayout)
			return output(opts, cmd.OutOrStdout(), map[string]string{"date": day}, func(w io.Writer) {
				fmt.Fprintf(w, "added checkpoint %s\n", day)
			})
		},
	}
}

func newCheckpointsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List refresh checkpoints in date order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.Open()
			if err != nil {
				return err
			}
			schedule, err := engine.Schedule(cmd.Context())
			if err != nil {
				return err
			}
			dates := make([]string, 0)
			for _, d := range schedule.Dates() {
				dates = append(dates, d.Format(config.DateLayout))
			}
			return output(opts, cmd.OutOrStdout(), map[string][]string{"dates": dates}, func(w io.Writer) {
				for _, d := range dates {
					fmt.Fprintln(w, d)
				}
			})
		},
	}
}

func newCheckpointsImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <schedule.yaml>",
		Short: "Provision every checkpoint listed in a YAML schedule",
		Long: `Provision refresh checkpoints from a YAML file of the form

  checkpoints:
    - 2026-09-01
    - 2027-01-15

Dates that already exist are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dates, err := config.LoadSchedule(args[0])
			if err != nil {
				return err
			}
			engine, err := opts.Open()
			if err != nil {
				return err
			}

			var added, skipped []string
			for _, d := range dates {
				day := d.Format(config.DateLayout)
				if _, err := engine.AddCheckpoint(cmd.Context(), d); err != nil {
					if errors.Is(err, crush.ErrDuplicateCheckpoint) {
						skipped = append(skipped, day)
						continue
					}
					return fmt.Errorf("add %s: %w", day, err)
				}
				added = append(added, day)
			}

			result := map[string][]string{"added": added, "skipped": skipped}
			return output(opts, cmd.OutOrStdout(), result, func(w io.Writer) {
				fmt.Fprintf(w, "added %d checkpoint(s), skipped %d existing\n", len(added), len(skipped))
			})
		},
	}
}
