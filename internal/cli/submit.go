package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	crushsvc "github.com/oggyb/crush-connector/internal/service/crush"
)

// NewSubmitCommand submits crushes through a running server.
func NewSubmitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <asker> <target...>",
		Short: "Submit crushes through the gRPC server at --addr",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := grpc.NewClient(opts.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("dial %s: %w", opts.Addr, err)
			}
			defer conn.Close()

			resp, err := crushsvc.NewClient(conn).SubmitCrushes(cmd.Context(), &crushsvc.SubmitCrushesRequest{
				AskerEmail: args[0],
				Targets:    args[1:],
			})
			if err != nil {
				return err
			}
			return output(opts, cmd.OutOrStdout(), resp, func(w io.Writer) {
				writeSubmit(w, resp)
			})
		},
	}
}

func writeSubmit(w io.Writer, resp *crushsvc.SubmitCrushesResponse) {
	switch resp.Outcome {
	case crushsvc.OutcomeInvalidTarget:
		fmt.Fprintf(w, "invalid target %s: %s\n", resp.InvalidEmail, resp.Reason)
		return
	case crushsvc.OutcomeOverLimit:
		fmt.Fprintf(w, "over limit: %d of %d used\n", resp.Quota.NumUsed, resp.Quota.NumAllowed)
		return
	}
	if len(resp.Matches) > 0 {
		names := make([]string, 0, len(resp.Matches))
		for _, m := range resp.Matches {
			names = append(names, m.Email)
		}
		fmt.Fprintf(w, "matched: %s\n", strings.Join(names, ", "))
	}
	if resp.Quota != nil {
		fmt.Fprintf(w, "%d of %d left, refresh on %s\n", resp.Quota.NumLeft, resp.Quota.NumAllowed, resp.Quota.NextRefresh)
	}
}
