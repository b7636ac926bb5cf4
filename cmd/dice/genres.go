package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	genresLanguage string
	genresType     string
)

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "Manage stored genre names",
}

var genresSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch movie and series genres from TMDB",
	Args:  cobra.NoArgs,
	RunE:  runGenresSync,
}

var genresListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored genres",
	Args:  cobra.NoArgs,
	RunE:  runGenresList,
}

func init() {
	rootCmd.AddCommand(genresCmd)
	genresCmd.AddCommand(genresSyncCmd)
	genresCmd.AddCommand(genresListCmd)
	genresCmd.PersistentFlags().StringVar(&genresLanguage, "language", "", "Language (default from config)")
	genresListCmd.Flags().StringVar(&genresType, "type", "movie", "movie or series")
}

func runGenresSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, cfg, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	lang := genresLanguage
	if lang == "" {
		lang = cfg.Catalog.DefaultLanguage
	}
	if err := app.Syncer.Sync(ctx, lang, cfg.TMDB.APIKey); err != nil {
		return err
	}
	fmt.Printf("Synced genres for %s\n", lang)
	return nil
}

func runGenresList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, cfg, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	lang := genresLanguage
	if lang == "" {
		lang = cfg.Catalog.DefaultLanguage
	}
	kind := genresType
	if kind == "series" {
		kind = "tv"
	}

	genres, err := app.Genres.List(ctx, kind, lang)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(genres)
		return nil
	}
	if len(genres) == 0 {
		fmt.Printf("No %s genres stored for %s. Run 'dice genres sync --language %s'.\n", genresType, lang, lang)
		return nil
	}

	fmt.Printf("%s genres (%s, %d):\n\n", genresType, lang, len(genres))
	fmt.Printf("  %-6s %s\n", "ID", "NAME")
	for _, g := range genres {
		fmt.Printf("  %-6d %s\n", g.ID, g.Name)
	}
	return nil
}
