// Package cli implements scribectl, the operator command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"scribe/internal/bootstrap"
	"scribe/internal/config"

	"github.com/spf13/cobra"
)

// Opener builds the runtime a command works against.
type Opener func(ctx context.Context) (*bootstrap.Runtime, error)

// RootOptions holds global flags and the runtime opener.
type RootOptions struct {
	Format string // "json" | "text"
	Open   Opener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// DefaultOpener loads configuration from the environment and connects
// without Redis. Cache entries touched by a command expire on their own.
func DefaultOpener(ctx context.Context) (*bootstrap.Runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
}

// NewRootCommand creates the scribectl root command. open may be nil to use
// DefaultOpener.
func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = DefaultOpener
	}
	opts := &RootOptions{Open: open}

	cmd := &cobra.Command{
		Use:   "scribectl",
		Short: "Operate a scribe deployment",
		Long:  "Schema migrations, moderation, counter repair and demo data for scribe.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewAdminCommand(opts))
	cmd.AddCommand(NewBanCommand(opts))
	cmd.AddCommand(NewWarnCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewFlagsCommand(opts))
	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// withRuntime opens the runtime, runs fn and closes it.
func (o *RootOptions) withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *bootstrap.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := o.Open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

// emit writes v as JSON, or text via the text func.
func (o *RootOptions) emit(w io.Writer, v interface{}, text func(io.Writer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
