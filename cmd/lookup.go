package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wildanrfq/filmbro/internal/api"
)

func newFilmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "film <title>",
		Short: "Look up a film by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: lookupRunner(func(ctx context.Context, l api.Lookup, args []string) (any, error) {
			return l.Film(ctx, strings.Join(args, " "))
		}),
	}
}

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <username>",
		Short: "Look up a member profile",
		Args:  cobra.ExactArgs(1),
		RunE: lookupRunner(func(ctx context.Context, l api.Lookup, args []string) (any, error) {
			return l.Profile(ctx, args[0])
		}),
	}
}

func newDiaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diary <username>",
		Short: "Print the most recent diary entries of a member",
		Args:  cobra.ExactArgs(1),
		RunE: lookupRunner(func(ctx context.Context, l api.Lookup, args []string) (any, error) {
			return l.Diary(ctx, args[0])
		}),
	}
}

func newImagesCmd(use, short string) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   use + " <title>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: lookupRunner(func(ctx context.Context, l api.Lookup, args []string) (any, error) {
			if year < 0 {
				return nil, fmt.Errorf("--year must be >= 0, got %d", year)
			}
			title := strings.Join(args, " ")
			if use == "posters" {
				return l.Posters(ctx, title, year)
			}
			return l.Backdrops(ctx, title, year)
		}),
	}
	cmd.Flags().IntVar(&year, "year", 0, "release year filter (0 means any)")
	return cmd
}

func newRouletteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roulette",
		Short: "Pick a random film",
		Args:  cobra.NoArgs,
		RunE: lookupRunner(func(ctx context.Context, l api.Lookup, _ []string) (any, error) {
			return l.Roulette(ctx)
		}),
	}
}

// lookupRunner resolves the App, runs one lookup and prints it as indented
// JSON.
func lookupRunner(run func(ctx context.Context, l api.Lookup, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		appInstance, err := resolveApp(cmd.Context())
		if err != nil {
			return err
		}
		result, err := run(cmd.Context(), appInstance.Lookup(), args)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		return nil
	}
}
