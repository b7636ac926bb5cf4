package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/tmdbdice/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Check a config file without starting the server",
	Long: `Loads the config file, resolves ${VAR} references and validates every value.

Without a path, DICE_CONFIG and then the standard locations are searched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigTest,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the annotated default config",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var forceInit bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configTestCmd, configInitCmd)
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Replace an existing file")
}

// configReport is the --json shape of 'config test'.
type configReport struct {
	Path     string   `json:"path"`
	Valid    bool     `json:"valid"`
	Missing  []string `json:"missing_env,omitempty"`
	Problems []string `json:"problems,omitempty"`
	Keys     []string `json:"keys_set,omitempty"`
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		found, err := config.Discover()
		if errors.Is(err, config.ErrNotFound) && !jsonOutput {
			fmt.Println("No config file in:")
			for _, p := range config.SearchPaths() {
				fmt.Printf("  %s\n", p)
			}
			fmt.Println("Create one with 'dice config init'.")
		}
		if err != nil {
			return err
		}
		path = found
	}

	report := configReport{Path: path}
	cfg, err := config.Load(path)
	var cfgErr *config.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		report.Missing = cfgErr.Missing
		report.Problems = cfgErr.Errors
	case err != nil:
		return fmt.Errorf("read %s: %w", path, err)
	default:
		report.Valid = true
		report.Keys = keysSet(cfg)
	}

	if jsonOutput {
		printJSON(report)
	} else {
		printConfigReport(report, cfg)
	}
	if !report.Valid {
		return fmt.Errorf("%s is not valid", path)
	}
	return nil
}

func keysSet(cfg *config.Config) []string {
	var keys []string
	for _, k := range []struct{ name, value string }{
		{"tmdb", cfg.TMDB.APIKey},
		{"rpdb", cfg.RPDB.APIKey},
		{"fanart", cfg.Fanart.APIKey},
	} {
		if k.value != "" {
			keys = append(keys, k.name)
		}
	}
	return keys
}

func printConfigReport(r configReport, cfg *config.Config) {
	fmt.Printf("%s\n\n", r.Path)
	if !r.Valid {
		for _, m := range r.Missing {
			fmt.Printf("  unset: %s\n", m)
		}
		for _, p := range r.Problems {
			fmt.Printf("  invalid: %s\n", p)
		}
		return
	}

	rate := "unlimited"
	if cfg.Scheduler.RequestsPerSecond > 0 {
		rate = fmt.Sprintf("%.1f/s", cfg.Scheduler.RequestsPerSecond)
	}
	fmt.Printf("  listen     %s:%d, log %s\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.LogLevel)
	fmt.Printf("  base url   %s\n", cfg.Server.BaseURL)
	fmt.Printf("  database   %s\n", cfg.Database.Path)
	fmt.Printf("  catalog    ttl %s, lang %s, pages <= %d\n",
		cfg.Catalog.CacheDuration, cfg.Catalog.DefaultLanguage, cfg.Catalog.MaxPages)
	fmt.Printf("  posters    %s, ttl %s\n", cfg.Posters.Dir, cfg.Posters.CacheDuration)
	fmt.Printf("  upstream   %d slots, %s\n", cfg.Scheduler.Concurrency, rate)
	fmt.Printf("  keys       %d of 3 set\n", len(r.Keys))
	fmt.Println("\nOK")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s exists (use --force to replace it)", path)
	}
	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Println(path)
	return nil
}
