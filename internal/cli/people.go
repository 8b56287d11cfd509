package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type personOut struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewPeopleCommand groups person directory administration.
func NewPeopleCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "people",
		Short: "Manage the person directory",
	}
	cmd.AddCommand(newPeopleRegisterCommand(opts))
	cmd.AddCommand(newPeopleSearchCommand(opts))
	cmd.AddCommand(newPeopleShowCommand(opts))
	cmd.AddCommand(newPeopleNormalizeCommand(opts))
	return cmd
}

func newPeopleRegisterCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <email> <name...>",
		Short: "Register a person, or name a stub created by a crush",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.Open()
			if err != nil {
				return err
			}
			p, err := engine.Directory().Register(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return output(opts, cmd.OutOrStdout(), personOut{Email: p.Email, Name: p.Name}, func(w io.Writer) {
				fmt.Fprintf(w, "%s\t%s\n", p.Email, p.Name)
			})
		},
	}
}

func newPeopleShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <email>",
		Short: "Show a person with their quota and notice status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.Open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			p, err := engine.Directory().Lookup(ctx, args[0])
			if err != nil {
				return err
			}
			q, err := engine.Quota(ctx, p.Email)
			if err != nil {
				return err
			}
			notified, err := engine.Directory().NotifiedAt(ctx, p.Email)
			if err != nil {
				return err
			}

			result := struct {
				personOut
				Registered bool       `json:"registered"`
				NumLeft    int        `json:"num_left"`
				NumAllowed int        `json:"num_allowed"`
				NotifiedAt *time.Time `json:"notified_at,omitempty"`
			}{
				personOut:  personOut{Email: p.Email, Name: p.Name},
				Registered: !p.IsPlaceholder(),
				NumLeft:    q.NumLeft,
				NumAllowed: q.NumAllowed,
				NotifiedAt: notified,
			}
			return output(opts, cmd.OutOrStdout(), result, func(w io.Writer) {
				fmt.Fprintf(w, "%s\t%s\n", p.Email, p.Name)
				if !result.Registered {
					fmt.Fprintln(w, "not registered yet")
				}
				fmt.Fprintf(w, "%d of %d left\n", q.NumLeft, q.NumAllowed)
				if notified != nil {
					fmt.Fprintf(w, "notified %s\n", notified.Format(time.RFC3339))
				}
			})
		},
	}
}

func newPeopleSearchCommand(opts *RootOptions) *cobra.Command {
	var (
		limit int
		token string
	)
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search people by name or email",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.Open()
			if err != nil {
				return err
			}
			term := ""
			if len(args) == 1 {
				term = args[0]
			}
			var cursor *string
			if token != "" {
				cursor = &token
			}

			people, next, err := engine.Directory().Search(cmd.Context(), term, cursor, limit)
			if err != nil {
				return err
			}

			result := struct {
				People []personOut `json:"people"`
				Next   *string     `json:"next_pagination_token,omitempty"`
			}{People: make([]personOut, 0, len(people)), Next: next}
			for _, p := range people {
				result.People = append(result.People, personOut{Email: p.Email, Name: p.Name})
			}
			return output(opts, cmd.OutOrStdout(), result, func(w io.Writer) {
				for _, p := range result.People {
					fmt.Fprintf(w, "%s\t%s\n", p.Email, p.Name)
				}
				if next != nil {
					fmt.Fprintf(w, "next page: --page %s\n", *next)
				}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results per page")
	cmd.Flags().StringVar(&token, "page", "", "pagination token from a previous search")
	return cmd
}

func newPeopleNormalizeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize-names",
		Short: "Reduce every registered name to first and last name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.Open()
			if err != nil {
				return err
			}
			changed, err := engine.Directory().NormalizeNames(cmd.Context())
			if err != nil {
				return err
			}
			return output(opts, cmd.OutOrStdout(), map[string]int{"changed": changed}, func(w io.Writer) {
				fmt.Fprintf(w, "normalized %d name(s)\n", changed)
			})
		},
	}
}
