package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"scribe/internal/bootstrap"

	"github.com/spf13/cobra"
)

func parseUserID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return uint(id), nil
}

// NewAdminCommand creates the admin command group.
func NewAdminCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	setAdmin := func(use, short string, admin bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <user-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseUserID(args[0])
				if err != nil {
					return err
				}
				return opts.withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
					if err := rt.Engine.Users.SetAdmin(ctx, id, admin); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "user %d admin=%t\n", id, admin)
					return nil
				})
			},
		}
	}
	cmd.AddCommand(setAdmin("promote", "Grant administrator rights", true))
	cmd.AddCommand(setAdmin("demote", "Revoke administrator rights", false))

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List administrators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				admins, err := rt.Engine.Repos.Users.ListAdmins(ctx)
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), admins, func(w io.Writer) {
					if len(admins) == 0 {
						fmt.Fprintln(w, "no administrators")
						return
					}
					for _, a := range admins {
						fmt.Fprintf(w, "%d\t%s\t%s\n", a.ID, a.Username, a.Email)
					}
				})
			})
		},
	})
	return cmd
}
