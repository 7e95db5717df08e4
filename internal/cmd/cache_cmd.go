package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osint-industries/oi-cli/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Aliases: []string{"ch"},
		Short:   "Manage the search result cache",
	}
	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())
	return cmd
}

type cacheClearResult struct {
	Backend string `json:"backend"`
	Removed int    `json:"removed"`
}

func cacheBackend() string {
	if strings.TrimSpace(os.Getenv(cache.EnvRedisURL)) != "" {
		return "redis"
	}
	return "file"
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached search results",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			store, err := openCache(cache.DefaultTTL)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			result := cacheClearResult{Backend: cacheBackend(), Removed: removed}
			return printRecord(cmd, result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Removed %d cached search result(s) from the %s cache\n", removed, result.Backend)
				return err
			})
		}),
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the cache directory path",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir, err := cache.DefaultDir()
			if err != nil {
				return fmt.Errorf("could not determine cache directory: %w", err)
			}
			return printRecord(cmd, map[string]string{"path": dir}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, dir)
				return err
			})
		}),
	}
}
