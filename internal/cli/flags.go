package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"scribe/internal/bootstrap"

	"github.com/spf13/cobra"
)

// NewFlagsCommand creates the flags command.
func NewFlagsCommand(opts *RootOptions) *cobra.Command {
	var user uint
	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Show configured feature flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				raw := rt.Flags.Raw()
				eval := rt.Flags.Snapshot(user)
				out := map[string]interface{}{"flags": raw, "evaluated": eval}
				return opts.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
					names := make([]string, 0, len(raw))
					for name := range raw {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						fmt.Fprintf(w, "%s=%s (%t)\n", name, raw[name], eval[name])
					}
				})
			})
		},
	}
	cmd.Flags().UintVar(&user, "user", 0, "evaluate rollouts for this user id")
	return cmd
}
