package config

import (
	"github.com/spf13/cobra"

	"github.com/tbckr/netgeo/internal/cache"
	"github.com/tbckr/netgeo/internal/output"
)

// CompleteOutputFormat provides shell completion candidates for the --output flag.
func CompleteOutputFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return output.Formats(), cobra.ShellCompDirectiveNoFileComp
}

// CompleteCacheBackend provides shell completion candidates for the --cache-backend flag.
func CompleteCacheBackend(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return cache.BackendKinds(), cobra.ShellCompDirectiveNoFileComp
}

// RegisterFlagCompletions wires completion functions for the enumerated flags
// registered by RegisterFlags on cmd's persistent flags.
func RegisterFlagCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("output", CompleteOutputFormat)
	_ = cmd.RegisterFlagCompletionFunc("cache-backend", CompleteCacheBackend)
	_ = cmd.RegisterFlagCompletionFunc("cache-dir", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})
}
