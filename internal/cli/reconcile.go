package cli

import (
	"context"
	"fmt"
	"io"

	"scribe/internal/bootstrap"

	"github.com/spf13/cobra"
)

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute denormalized counters and repair drift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				res, err := rt.Engine.Reconcile.Run(ctx)
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
					if res.Total() == 0 {
						fmt.Fprintln(w, "counters consistent")
						return
					}
					fmt.Fprintf(w, "repaired %d rows: categories=%d users=%d post_comments=%d post_likes=%d\n",
						res.Total(), res.CategoryPostCounts, res.UserPostCounts, res.PostCommentCounts, res.PostLikeCounts)
				})
			})
		},
	}
}
