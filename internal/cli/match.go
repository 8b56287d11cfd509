package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oggyb/crush-connector/internal/config"
)

// NewMatchCommand groups match diagnostics.
func NewMatchCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Inspect matches",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <asker> <target>",
		Short: "Report whether target holds an active crush on asker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.Open()
			if err != nil {
				return err
			}
			ok, err := engine.CheckMatch(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return output(opts, cmd.OutOrStdout(), map[string]bool{"match": ok}, func(w io.Writer) {
				if ok {
					fmt.Fprintln(w, "match")
				} else {
					fmt.Fprintln(w, "no match")
				}
			})
		},
	})
	return cmd
}

// NewQuotaCommand prints a person's quota.
func NewQuotaCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quota <email>",
		Short: "Show how many crushes a person has left",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.Open()
			if err != nil {
				return err
			}
			q, err := engine.Quota(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			next := q.NextRefresh.Format(config.DateLayout)
			result := map[string]any{
				"num_left":     q.NumLeft,
				"num_used":     q.NumUsed,
				"num_allowed":  q.NumAllowed,
				"next_refresh": next,
			}
			return output(opts, cmd.OutOrStdout(), result, func(w io.Writer) {
				fmt.Fprintf(w, "%d of %d left, refresh on %s\n", q.NumLeft, q.NumAllowed, next)
			})
		},
	}
}
