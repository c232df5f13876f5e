package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zarko379/iMangarr-ng/internal/store"
)

func newSettingsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Work with the settings record",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := opts.open()
			if err != nil {
				return err
			}
			defer b.Close()

			settings, err := b.LoadSettings(cmd.Context())
			if errors.Is(err, store.ErrSettingsNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not configured. Open the web UI to run setup.")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend:     %s\n", b.Name())
			fmt.Fprintf(out, "Root folder: %s\n", settings.RootPath)
			fmt.Fprintf(out, "Indexer:     %s\n", settings.Indexer)
			return nil
		},
	})

	return cmd
}
