package cli

import (
	"context"
	"fmt"

	"scribe/internal/bootstrap"

	"github.com/spf13/cobra"
)

// NewBanCommand creates the ban command.
func NewBanCommand(opts *RootOptions) *cobra.Command {
	var actor uint
	cmd := &cobra.Command{
		Use:   "ban <user-id>",
		Short: "Ban a user and remove everything they created",
		Long: `Ban a user. The email goes on the ban list, then their posts, comments,
likes, communities and the account itself are deleted. Administrators
cannot be banned; demote them first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				if err := rt.Engine.Cascade.BanUser(ctx, id, actor); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d banned\n", id)
				return nil
			})
		},
	}
	cmd.Flags().UintVar(&actor, "actor", 0, "administrator id recorded as the actor")
	return cmd
}

// NewWarnCommand creates the warn command.
func NewWarnCommand(opts *RootOptions) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "warn <user-id>",
		Short: "Mark a user as warned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				if err := rt.Engine.Moderation.WarnUser(ctx, id, reason); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d warned\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason shown to the user")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
