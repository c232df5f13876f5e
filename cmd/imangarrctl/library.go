package main

import (
	"context"
	"encoding/json/v2"
	"encoding/json/jsontext"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/store"
)

// Output formats for list commands.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// entryRow is the printed form of a library entry.
type entryRow struct {
	ID                 int64  `json:"id" yaml:"id"`
	Title              string `json:"title" yaml:"title"`
	Cover              string `json:"cover" yaml:"cover"`
	AddedAt            string `json:"added_at" yaml:"added_at"`
	ChaptersDownloaded int    `json:"chapters_downloaded" yaml:"chapters_downloaded"`
	VolumesDownloaded  int    `json:"volumes_downloaded" yaml:"volumes_downloaded"`
	Status             string `json:"status" yaml:"status"`
}

func toRow(e domain.Entry) entryRow {
	return entryRow{
		ID:                 int64(e.ID),
		Title:              e.Title,
		Cover:              e.Cover,
		AddedAt:            e.AddedAt.UTC().Format(time.RFC3339),
		ChaptersDownloaded: e.ChaptersDownloaded,
		VolumesDownloaded:  e.VolumesDownloaded,
		Status:             string(e.Status),
	}
}

func newLibraryCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Work with the manga library",
	}

	cmd.AddCommand(newLibraryListCmd(opts))
	cmd.AddCommand(newLibraryMigrateCmd(opts))

	return cmd
}

func newLibraryListCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List library entries in insertion order",
		Long: `List every manga on the watch list.

Examples:
  imangarrctl library list
  imangarrctl library list -o json
  imangarrctl library list --backend sqlite -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := opts.open()
			if err != nil {
				return err
			}
			defer b.Close()

			entries, err := b.LoadLibrary(cmd.Context())
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), output, entries)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json, yaml)")

	return cmd
}

func printEntries(w io.Writer, format string, entries []domain.Entry) error {
	rows := make([]entryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, toRow(e))
	}

	switch format {
	case outputJSON:
		data, err := json.Marshal(rows, jsontext.WithIndent("  "))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()

	case outputTable:
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, "The library is empty.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tADDED")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, truncate(r.Title, 48), r.Status, r.AddedAt)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\nTotal: %d manga\n", len(rows))
		return err

	default:
		return fmt.Errorf("unknown output format %q (table, json, yaml)", format)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func newLibraryMigrateCmd(opts *globalOptions) *cobra.Command {
	var from, to string
	var force bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy settings and library between storage backends",
		Long: `Copy the settings record and every library entry, in order, from one
backend to another inside the same data directory.

The target must be empty unless --force is given, in which case its
library is replaced.

Examples:
  imangarrctl library migrate --from json --to sqlite
  imangarrctl library migrate --from badger --to json --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if from == to {
				return fmt.Errorf("source and target are both %q", from)
			}

			cfg, err := opts.load()
			if err != nil {
				return err
			}

			src, err := openBackend(from, cfg.Storage.DataPath)
			if err != nil {
				return err
			}
			defer src.Close()

			dst, err := openBackend(to, cfg.Storage.DataPath)
			if err != nil {
				return err
			}
			defer dst.Close()

			n, err := migrate(cmd.Context(), src, dst, force)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d entries from %s to %s\n", n, src.Name(), dst.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source backend (json, badger, sqlite)")
	cmd.Flags().StringVar(&to, "to", "", "Target backend (json, badger, sqlite)")
	cmd.Flags().BoolVar(&force, "force", false, "Replace a non-empty target")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// migrate copies src into dst and returns the number of entries written.
func migrate(ctx context.Context, src, dst store.Backend, force bool) (int, error) {
	existing, err := dst.LoadLibrary(ctx)
	if err != nil {
		return 0, fmt.Errorf("read target library: %w", err)
	}
	if len(existing) > 0 && !force {
		return 0, fmt.Errorf("target %s already holds %d entries (use --force to replace them)", dst.Name(), len(existing))
	}

	entries, err := src.LoadLibrary(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source library: %w", err)
	}

	settings, err := src.LoadSettings(ctx)
	switch {
	case errors.Is(err, store.ErrSettingsNotFound):
	case err != nil:
		return 0, fmt.Errorf("read source settings: %w", err)
	default:
		if err := dst.SaveSettings(ctx, settings); err != nil {
			return 0, fmt.Errorf("write target settings: %w", err)
		}
	}

	if entries == nil {
		entries = []domain.Entry{}
	}
	if err := dst.SaveLibrary(ctx, entries); err != nil {
		return 0, fmt.Errorf("write target library: %w", err)
	}
	return len(entries), nil
}
