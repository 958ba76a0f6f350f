package cli

import (
	"context"
	"fmt"
	"io"

	"scribe/internal/bootstrap"
	"scribe/internal/seed"

	"github.com/spf13/cobra"
)

type seedOptions struct {
	preset string
	clean  bool
	seed   int64
	custom seed.Options
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	so := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo data",
		Long: `Fill the database with demo data. Use --preset for one of the
bundled sizes, or --users/--posts and friends for a custom run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				return runSeed(ctx, cmd, opts, so, rt)
			})
		},
	}
	cmd.Flags().StringVar(&so.preset, "preset", "", "named preset (minimal|standard|busy)")
	cmd.Flags().BoolVar(&so.clean, "clean", false, "delete all rows first")
	cmd.Flags().Int64Var(&so.seed, "seed", 0, "random seed for reproducible content")
	cmd.Flags().IntVar(&so.custom.Users, "users", 10, "users to create")
	cmd.Flags().IntVar(&so.custom.Posts, "posts", 30, "published posts to create")
	cmd.Flags().IntVar(&so.custom.Drafts, "drafts", 3, "drafts to create")
	cmd.Flags().IntVar(&so.custom.CommentsPerPost, "comments", 3, "comments per post")
	cmd.Flags().Float64Var(&so.custom.ReplyRatio, "reply-ratio", 0.3, "share of comments that are replies")
	cmd.Flags().IntVar(&so.custom.LikesPerPost, "likes", 3, "likes per post")
	return cmd
}

func runSeed(ctx context.Context, cmd *cobra.Command, opts *RootOptions, so *seedOptions, rt *bootstrap.Runtime) error {
	s, err := seed.NewSeeder(rt.DB, rt.Engine)
	if err != nil {
		return err
	}
	if so.clean {
		if err := s.ClearAll(ctx); err != nil {
			return err
		}
	}

	var sum *seed.Summary
	if so.preset != "" {
		sum, err = s.ApplyPreset(ctx, so.preset, so.seed)
	} else {
		so.custom.Seed = so.seed
		sum, err = s.Run(ctx, so.custom)
	}
	if err != nil {
		return err
	}
	return opts.emit(cmd.OutOrStdout(), sum, func(w io.Writer) {
		fmt.Fprintf(w, "seeded users=%d posts=%d drafts=%d comments=%d likes=%d communities=%d\n",
			sum.Users, sum.Posts, sum.Drafts, sum.Comments, sum.Likes, sum.Communities)
	})
}
