package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/quorum/internal/cache"
	"github.com/dshills/quorum/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached agent responses",
	RunE:  runCacheClear,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  runCacheStats,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd, cacheStatsCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	// Clearing works even when caching is turned off in config.
	c, err := openCache(true)
	if err != nil {
		return err
	}
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	fmt.Fprintln(os.Stdout, "Cache cleared.")
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, err := openCache(false)
	if err != nil {
		return err
	}
	if !c.Enabled() {
		fmt.Fprintln(os.Stdout, "Cache is disabled.")
		return nil
	}

	stats, err := c.GetStats()
	if err != nil {
		return fmt.Errorf("reading cache stats: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// openCache builds a cache handle from the loaded config. With force
// set the handle is enabled regardless of config, so clear can operate
// on a disabled cache.
func openCache(force bool) (*cache.Cache, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(force || cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return c, nil
}
