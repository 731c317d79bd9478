// Package cli provides the Cobra command tree and output wiring for netgeo.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tbckr/netgeo/internal/config"
	"github.com/tbckr/netgeo/internal/version"
	"github.com/tbckr/netgeo/internal/worker"
)

// rootOption adjusts the resolved dependencies after config loading.
type rootOption func(*deps)

// newRootCmd builds the top-level Cobra command for netgeo.
// Callers must set stdout/stderr via cmd.SetOut / cmd.SetErr before Execute.
func newRootCmd(opts ...rootOption) *cobra.Command {
	// d is populated by PersistentPreRunE before any subcommand's RunE runs.
	// INVARIANT: Cobra only executes the innermost PersistentPreRunE in the
	// command chain. If a future subcommand defines its own PersistentPreRunE,
	// the root hook will NOT run and d will be zero-valued. Do not add
	// PersistentPreRunE to any subcommand without also re-calling buildDeps.
	var d deps

	cmd := &cobra.Command{
		Use:   "netgeo",
		Short: "netgeo - geolocate AS numbers, IPv4 addresses and domains",
		Long: `netgeo queries a NetGeo server for the geographic location of Internet
resources: AS numbers (AS701), IPv4 addresses and domain names.

Replies are kept in a local cache so repeated lookups of the same target do
not reach the server again until the cache entry expires (see --cache-ttl).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := buildDeps(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			for _, opt := range opts {
				opt(resolved)
			}
			d = *resolved
			return nil
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())
	config.RegisterFlagCompletions(cmd)

	cmd.Version = version.Version
	cmd.SetVersionTemplate("netgeo version {{.Version}}\n")

	cmd.AddGroup(
		&cobra.Group{ID: "lookup", Title: "Lookup Commands:"},
		&cobra.Group{ID: "utility", Title: "Utility Commands:"},
	)

	cmd.AddCommand(
		newRecordCmd(&d),
		newCountryCmd(&d),
		newLatLongCmd(&d),
		newCacheCmd(&d),
		newConfigCmd(&d),
		newCompletionCmd(),
		newVersionCmd(&d),
	)

	return cmd
}

// Execute builds the root command and runs it with args.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// resolveInputs returns positional args, or reads non-empty lines from stdin when
// no args are provided. Returns an error if stdin is an interactive terminal with
// no args (i.e. the user forgot to pass an argument or pipe input).
func resolveInputs(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	r := cmd.InOrStdin()
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // uintptr→int is safe for file descriptors; they fit in int on all supported platforms
		return nil, fmt.Errorf("no input: pass an argument or pipe stdin")
	}
	return worker.ReadInputs(r)
}
