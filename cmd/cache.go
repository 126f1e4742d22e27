package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fikebr/notes-to-blog/internal/cache"
	"github.com/fikebr/notes-to-blog/internal/config"
)

var flagPruneOlderThan string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or trim the local research cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show research cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		dbPath := cfg.ResolvedCachePath()
		db, err := cache.Open(dbPath, cfg.CacheTTL())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		count, size, err := db.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("Cache: %s\n", dbPath)
		fmt.Printf("Queries: %d\n", count)
		fmt.Printf("Size: %s\n", formatBytes(size))
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove stale research results",
	Long: `Delete cached search results older than the configured TTL and reclaim
disk space. Override the cutoff with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		db, err := cache.Open(cfg.ResolvedCachePath(), cfg.CacheTTL())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		cutoff := cfg.CacheTTL()
		if flagPruneOlderThan != "" {
			d, err := parseAge(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			cutoff = d
		}
		if cutoff <= 0 {
			return fmt.Errorf("no TTL configured; pass --older-than")
		}

		deleted, err := db.Prune(cutoff)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d cached quer(ies) older than %s.\n", deleted, formatAge(cutoff))
		}
		return nil
	},
}

func init() {
	cachePruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override cutoff (e.g., 7d, 24h)")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePruneCmd)
}

// parseAge accepts Go durations plus a day suffix ("7d").
func parseAge(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func formatAge(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
