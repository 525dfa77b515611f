// Package cmd defines and implements the CLI commands for the filmbro executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wildanrfq/filmbro/internal/api"
	"github.com/wildanrfq/filmbro/internal/app"
	"github.com/wildanrfq/filmbro/internal/config"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is the application surface commands use, so tests can inject a fake.
type App interface {
	Close()
	Run(ctx context.Context) error
	Lookup() api.Lookup
}

type builtApp struct {
	*app.App
}

func (b builtApp) Lookup() api.Lookup {
	return b.Service()
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(ctx context.Context, cfgPath string) (App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return builtApp{a}, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "filmbro",
		Short: "Film, profile and diary lookups from Letterboxd and TMDB.",
		Long: `filmbro scrapes Letterboxd film pages, member profiles and diaries,
resolves poster and backdrop sets through TMDB, and picks random films
through Letterboxd short links. Results are cached in memory per kind.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./filmbro.yaml or $HOME/.filmbro/filmbro.yaml)")

	cmd.AddCommand(
		newServeCmd(),
		newFilmCmd(),
		newProfileCmd(),
		newDiaryCmd(),
		newImagesCmd("posters", "Print the English poster set of a film"),
		newImagesCmd("backdrops", "Print the backdrop set of a film"),
		newRouletteCmd(),
	)
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
