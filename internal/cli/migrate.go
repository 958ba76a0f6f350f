package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"scribe/internal/bootstrap"
	"scribe/internal/database"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				if err := database.RunMigrations(ctx, rt.DB); err != nil {
					return fmt.Errorf("sql migrations failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "sql migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "auto",
		Short: "Run AutoMigrate for every model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				cfg := *rt.Config
				cfg.DBSchemaMode = database.SchemaModeAuto
				if err := database.ApplySchema(ctx, rt.DB, &cfg); err != nil {
					return fmt.Errorf("auto schema apply failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "automigrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show schema mode and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				status, err := database.GetSchemaStatus(ctx, rt.DB, rt.Config)
				if err != nil {
					return fmt.Errorf("schema status failed: %w", err)
				}
				pending := make([]string, 0, len(status.PendingMigrations))
				for _, m := range status.PendingMigrations {
					pending = append(pending, m.String())
				}
				out := map[string]interface{}{
					"mode":        status.Mode,
					"environment": status.Environment,
					"run_sql":     status.WillRunSQL,
					"run_auto":    status.WillRunAutoMigrate,
					"applied":     status.AppliedVersions,
					"pending":     pending,
					"missing":     status.MissingTables,
				}
				return opts.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
					fmt.Fprintf(w, "mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
						status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
						len(status.AppliedVersions), len(pending))
					for _, p := range pending {
						fmt.Fprintf(w, "pending: %s\n", p)
					}
					for _, t := range status.MissingTables {
						fmt.Fprintf(w, "missing table: %s\n", t)
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down <version>",
		Short: "Roll back one SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				if err := database.RollbackMigration(ctx, rt.DB, version); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", version)
				return nil
			})
		},
	})
	return cmd
}
