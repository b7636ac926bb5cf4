package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vmunix/tmdbdice/internal/filter"
)

var pagesFlags struct {
	genre  string
	year   string
	rating string
}

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Inspect and reset served pages",
}

var pagesListCmd = &cobra.Command{
	Use:   "list <movie|series>",
	Short: "Show which pages were served for a filter combination",
	Args:  cobra.ExactArgs(1),
	RunE:  runPagesList,
}

var pagesResetCmd = &cobra.Command{
	Use:   "reset <movie|series>",
	Short: "Forget served pages so a filter combination can be drawn again",
	Args:  cobra.ExactArgs(1),
	RunE:  runPagesReset,
}

func init() {
	rootCmd.AddCommand(pagesCmd)
	pagesCmd.AddCommand(pagesListCmd)
	pagesCmd.AddCommand(pagesResetCmd)
	for _, c := range []*cobra.Command{pagesListCmd, pagesResetCmd} {
		addFilterFlags(c, &pagesFlags.genre, &pagesFlags.year, &pagesFlags.rating)
	}
}

func pagesSignature(arg string) (filter.Signature, error) {
	kind, err := filter.ParseKind(arg)
	if err != nil {
		return filter.Signature{}, err
	}
	return filter.Parse(kind, filterExtra(pagesFlags.genre, pagesFlags.year, pagesFlags.rating)), nil
}

func runPagesList(cmd *cobra.Command, args []string) error {
	sig, err := pagesSignature(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	app, _, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	consumed, err := app.Pages.Consumed(ctx, sig)
	if err != nil {
		return err
	}
	sort.Ints(consumed)

	if jsonOutput {
		printJSON(map[string]any{"signature": sig.Key(), "pages": consumed})
		return nil
	}
	fmt.Printf("%s: %d of at most %d pages served\n", sig.Key(), len(consumed), app.Pages.MaxPages())
	if len(consumed) > 0 {
		fmt.Printf("  %v\n", consumed)
	}
	return nil
}

func runPagesReset(cmd *cobra.Command, args []string) error {
	sig, err := pagesSignature(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	app, _, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Pages.Reset(ctx, sig)
	if err != nil {
		return err
	}
	fmt.Printf("Forgot %d served pages for %s\n", n, sig.Key())
	return nil
}
