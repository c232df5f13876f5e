package main

import (
	"flag"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zarko379/iMangarr-ng/internal/config"
	"github.com/zarko379/iMangarr-ng/internal/logger"
	"github.com/zarko379/iMangarr-ng/internal/store"
	"github.com/zarko379/iMangarr-ng/internal/store/backend"
)

// globalOptions override the configuration read from the environment.
type globalOptions struct {
	dataPath string
	backend  string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "imangarrctl",
		Short: "Inspect and migrate iMangarr data",
		Long: `imangarrctl works directly on the iMangarr data directory.

It reads the same configuration as the server (DATA_PATH, LIBRARY_BACKEND
and the .env file). Stop the server before running migrate.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.dataPath, "data-path", "", "Data directory (default: DATA_PATH)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "Storage backend (default: LIBRARY_BACKEND)")

	root.AddCommand(newLibraryCmd(opts))
	root.AddCommand(newSettingsCmd(opts))

	return root
}

// load resolves the configuration with the command-line overrides applied.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(flag.NewFlagSet("imangarrctl", flag.ContinueOnError), nil)
	if err != nil {
		return nil, err
	}
	if o.dataPath != "" {
		cfg.Storage.DataPath = o.dataPath
	}
	if o.backend != "" {
		cfg.Storage.Backend = o.backend
	}
	return cfg, nil
}

// open opens the configured backend. The caller closes it.
func (o *globalOptions) open() (store.Backend, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	return openBackend(cfg.Storage.Backend, cfg.Storage.DataPath)
}

func openBackend(kind, dataPath string) (store.Backend, error) {
	b, err := backend.Open(kind, dataPath, logger.Discard())
	if err != nil {
		return nil, fmt.Errorf("open %s storage in %s: %w", kind, dataPath, err)
	}
	return b, nil
}
