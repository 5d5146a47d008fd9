package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Response cache subcommands",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the response cache holds",
	RunE:  runCacheStats,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop expired cache entries",
	RunE:  runCachePurge,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	entries, tokensSaved, err := repo.CacheStorageStats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("entries:      %d\n", entries)
	fmt.Printf("tokens saved: %d\n", tokensSaved)
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	purged, err := repo.PurgeExpiredCache(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("purged %d expired entries\n", purged)
	return nil
}
