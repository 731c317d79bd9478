package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbckr/netgeo/internal/cache"
	"github.com/tbckr/netgeo/internal/output"
)

func newCacheCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Short:   "Inspect and clear the lookup cache",
		GroupID: "utility",
	}
	cmd.AddCommand(
		newCachePathCmd(d),
		newCacheListCmd(d),
		newCacheClearCmd(d),
	)
	return cmd
}

func newCachePathCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the lookup cache is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := cache.NewBackend(d.cfg.CacheBackend, d.cfg.CacheDir, d.cfg.CacheFile)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), backend.Location())
			return err
		},
	}
}

// cacheListing is the printable form of the cache contents.
type cacheListing struct {
	entries []cache.Entry
	ttl     time.Duration
	now     time.Time
}

func (l cacheListing) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.entries)
}

func (l cacheListing) status(e cache.Entry) string {
	if l.ttl > 0 && l.now.Sub(e.FetchedAt) > l.ttl {
		return "expired"
	}
	return "fresh"
}

func (l cacheListing) WriteTable(w io.Writer) error {
	rows := make([][]string, 0, len(l.entries))
	for _, e := range l.entries {
		rows = append(rows, []string{
			e.Key,
			string(e.Method),
			e.Record.Status,
			e.FetchedAt.Local().Format(time.DateTime),
			l.status(e),
		})
	}
	table := output.NewWrappingTable(w, 20, 60)
	table.Header([]string{"Target", "Method", "Status", "Fetched", "State"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func (l cacheListing) WriteText(w io.Writer) error {
	for _, e := range l.entries {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Key, e.Method, e.Record.Status, e.FetchedAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}

func newCacheListCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cached lookups",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := d.openCache()
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), d, cacheListing{
				entries: c.Entries(),
				ttl:     c.TTL(),
				now:     time.Now(),
			})
		},
	}
}

func newCacheClearCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached lookup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := d.openCache()
			if err != nil {
				return err
			}
			n := c.Len()
			c.Clear()
			if err := c.Flush(); err != nil {
				return err
			}
			d.logger.Debug("cache cleared", "location", c.Location(), "entries", n)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached lookups\n", n)
			return err
		},
	}
}
