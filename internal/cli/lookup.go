package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tbckr/netgeo/internal/geo"
)

// lookupFunc resolves inputs with an already-wired resolver and returns a
// result printable by writeResult.
type lookupFunc func(ctx context.Context, r *geo.Resolver, inputs []string) (any, error)

func runLookupCmd(cmd *cobra.Command, d *deps, args []string, lookup lookupFunc) error {
	inputs, err := resolveInputs(cmd, args)
	if err != nil {
		return err
	}
	r, err := d.newResolver()
	if err != nil {
		return err
	}
	result, err := lookup(cmd.Context(), r, inputs)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), d, result)
}

func noFileCompletion(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveNoFileComp
}

const targetHelp = `A target is an AS number (AS701, as701 or 701), an IPv4 address or a
domain name ending in a country code or a generic top-level domain
(com, net, org, edu, gov, mil, int). Malformed targets are reported with
STATUS INPUT_ERROR; they never abort the batch.

Multiple targets can be supplied as arguments or piped via stdin (one per
line). At most --batch-limit targets are accepted per invocation.`

func newRecordCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "record [target...]",
		Short:   "Look up the full NetGeo record of each target",
		GroupID: "lookup",
		Long: `Look up the full NetGeo record of each target: country, state, city,
coordinates, network name and registry.

` + targetHelp,
		Example: `  # Domain
  netgeo record caida.org

  # AS number and IPv4 address
  netgeo record AS701 192.172.226.1

  # Bulk input from stdin
  echo -e "caida.org\nAS701" | netgeo record

  # JSON output
  netgeo record --output json caida.org`,
		Args:              cobra.ArbitraryArgs,
		ValidArgsFunction: noFileCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookupCmd(cmd, d, args, func(ctx context.Context, r *geo.Resolver, inputs []string) (any, error) {
				return r.GetRecord(ctx, inputs...)
			})
		},
	}
}

func newCountryCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "country [target...]",
		Short:   "Look up the country of each target",
		GroupID: "lookup",
		Long: `Look up the ISO country code of each target. The country is empty when
the server has no match for the target.

` + targetHelp,
		Example: `  netgeo country caida.org AS701
  netgeo country --output text 192.172.226.1`,
		Args:              cobra.ArbitraryArgs,
		ValidArgsFunction: noFileCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookupCmd(cmd, d, args, func(ctx context.Context, r *geo.Resolver, inputs []string) (any, error) {
				return r.GetCountry(ctx, inputs...)
			})
		},
	}
}

func newLatLongCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "latlong [target...]",
		Aliases: []string{"ll"},
		Short:   "Look up the latitude and longitude of each target",
		GroupID: "lookup",
		Long: `Look up the latitude and longitude of each target, printed with two
decimals. Coordinates are 0.00 when the server has no match for the target.

` + targetHelp,
		Example: `  netgeo latlong caida.org
  netgeo ll --output json AS701`,
		Args:              cobra.ArbitraryArgs,
		ValidArgsFunction: noFileCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookupCmd(cmd, d, args, func(ctx context.Context, r *geo.Resolver, inputs []string) (any, error) {
				return r.GetLatLong(ctx, inputs...)
			})
		},
	}
}
