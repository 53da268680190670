package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dotlive/internal/config"
	"github.com/matzehuels/dotlive/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheStatsCommand())

	return cmd
}

// openFileCache returns the file cache, or nil with a message when the
// configured backend keeps nothing on disk.
func (c *CLI) openFileCache() (*cache.FileCache, error) {
	s := c.Settings()
	switch s.Cache.Backend {
	case config.CacheFile:
	case config.CacheRedis:
		printInfo("Redis entries expire on their own")
		printDetail("Prefix: %s", s.Cache.Prefix)
		return nil, nil
	default:
		printInfo("Nothing on disk for the %s cache", s.Cache.Backend)
		return nil, nil
	}

	dir, err := s.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("get cache dir: %w", err)
	}
	return cache.NewFileCache(dir)
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	var expired bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached renders and exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.openFileCache()
			if err != nil || fc == nil {
				return err
			}
			defer fc.Close()

			remove := fc.Clear
			if expired {
				remove = fc.Prune
			}
			count, err := remove()
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Nothing to remove")
				return nil
			}
			printSuccess("Removed %d cached entries", count)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired or unreadable entries")
	return cmd
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the file cache holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.openFileCache()
			if err != nil || fc == nil {
				return err
			}
			defer fc.Close()

			stats, err := fc.Stats()
			if err != nil {
				return err
			}
			kinds := make([]string, 0, len(stats))
			for k := range stats {
				kinds = append(kinds, k)
			}
			sort.Strings(kinds)

			out := cmd.OutOrStdout()
			for _, k := range kinds {
				st := stats[k]
				fmt.Fprintf(out, "%-8s %5d entries %10d bytes %5d expired\n", k, st.Entries, st.Bytes, st.Expired)
			}
			if len(kinds) == 0 {
				fmt.Fprintln(out, "empty")
			}
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.Settings()
			if s.Cache.Backend == config.CacheRedis {
				fmt.Fprintf(cmd.OutOrStdout(), "redis://%s/%d\n", s.Cache.Redis.Addr, s.Cache.Redis.DB)
				return nil
			}
			dir, err := s.CacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
