package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Catalog cache maintenance",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired catalog cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCachePrune,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePruneCmd)
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, _, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Cache.Prune(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d expired entries\n", n)
	return nil
}
