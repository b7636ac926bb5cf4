package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/tmdbdice/internal/catalog"
	"github.com/vmunix/tmdbdice/internal/filter"
)

var catalogFlags struct {
	genre         string
	year          string
	rating        string
	language      string
	cacheDuration string
	skip          string
}

var catalogCmd = &cobra.Command{
	Use:   "catalog <movie|series>",
	Short: "Draw a random catalog page",
	Long: `Draws a page exactly like the addon endpoint would, recording it as served.
Repeated calls with the same filters return the cached batch until it expires.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogCmd,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	addFilterFlags(catalogCmd, &catalogFlags.genre, &catalogFlags.year, &catalogFlags.rating)
	catalogCmd.Flags().StringVar(&catalogFlags.language, "language", "", "Result language (default from config)")
	catalogCmd.Flags().StringVar(&catalogFlags.cacheDuration, "cache-duration", "", "Cache duration like 3d or 12h (default from config)")
	catalogCmd.Flags().StringVar(&catalogFlags.skip, "skip", "", "Pagination offset, part of the cache key")
}

func addFilterFlags(cmd *cobra.Command, genre, year, rating *string) {
	cmd.Flags().StringVar(genre, "genre", "", "Genre name")
	cmd.Flags().StringVar(year, "year", "", "Year range, e.g. 1990-1999")
	cmd.Flags().StringVar(rating, "rating", "", "Rating range, e.g. 6-8")
}

func filterExtra(genre, year, rating string) map[string]string {
	extra := map[string]string{}
	for k, v := range map[string]string{"genre": genre, "year": year, "rating": rating} {
		if v != "" {
			extra[k] = v
		}
	}
	return extra
}

func runCatalogCmd(cmd *cobra.Command, args []string) error {
	kind, err := filter.ParseKind(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, cfg, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	extra := filterExtra(catalogFlags.genre, catalogFlags.year, catalogFlags.rating)
	if catalogFlags.skip != "" {
		extra["skip"] = catalogFlags.skip
	}
	if !filter.ResolveGenre(ctx, app.Genres, kind, extra) {
		fmt.Fprintf(os.Stderr, "warning: unknown genre %q, not filtering by genre\n", extra["genre"])
	}

	catalogID := "random_movies"
	if kind == filter.TV {
		catalogID = "random_series"
	}

	res, err := app.Pipeline.Fetch(ctx, catalog.Request{
		Kind:          kind,
		CatalogID:     catalogID,
		Extra:         extra,
		Language:      catalogFlags.language,
		CacheDuration: catalogFlags.cacheDuration,
		Credentials: catalog.Credentials{
			CatalogKey: cfg.TMDB.APIKey,
			PosterKey:  cfg.RPDB.APIKey,
			LogoKey:    cfg.Fanart.APIKey,
		},
	})
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}

	if jsonOutput {
		printJSON(res)
		return nil
	}

	if res.Exhausted {
		fmt.Println("Every page for these filters has been served. Use 'dice pages reset' to start over.")
		return nil
	}

	source := "fresh"
	if res.Cached {
		source = "cached"
	}
	fmt.Printf("Page %d (%s), %d items:\n\n", res.Page, source, len(res.Items))
	fmt.Printf("  %-10s %-40s %-12s %-6s %s\n", "ID", "NAME", "RELEASED", "RATING", "GENRES")
	fmt.Println("  " + strings.Repeat("-", 90))
	for _, m := range res.Items {
		fmt.Printf("  %-10s %-40s %-12s %-6s %s\n",
			m.ID, truncate(m.Name, 40), m.ReleaseInfo, m.IMDBRating, strings.Join(m.Genres, ", "))
	}
	return nil
}
