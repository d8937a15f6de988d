package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quix/internal/service/eventsourcing"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		fromDriver string
		fromURL    string
		fromPath   string
		fromPrefix string
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a workspace from another store's journal",
		Long: `Read the actor's journal from a source store and re-emit it, batch by
batch, into the configured store. Replaying into an empty store
reproduces the source workspace.

Examples:
  quixctl replay --actor alice --from-driver sqlite --from-sqlite-path old.db --driver postgres`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := a.actor("")
			if err != nil {
				return err
			}

			source := *a.cfg
			source.StoreDriver = fromDriver
			if fromURL != "" {
				source.DatabaseURL = fromURL
			}
			if fromPath != "" {
				source.SQLitePath = fromPath
			}
			if fromPrefix != "" {
				source.TablePrefix = fromPrefix
			}
			if err := source.Validate(); err != nil {
				return fmt.Errorf("source: %w", err)
			}

			src, err := a.open(ctx, &source)
			if err != nil {
				return fmt.Errorf("open source: %w", err)
			}
			defer src.Close()

			entries, err := src.Store.ListJournal(ctx, actor)
			if err != nil {
				return err
			}

			dst, err := a.open(ctx, a.cfg)
			if err != nil {
				return fmt.Errorf("open target: %w", err)
			}
			defer dst.Close()

			n, err := eventsourcing.Replay(ctx, a.bus(dst), entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d batches (%d actions)\n", n, len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromDriver, "from-driver", "sqlite", "source store driver")
	cmd.Flags().StringVar(&fromURL, "from-database-url", "", "source postgres connection string")
	cmd.Flags().StringVar(&fromPath, "from-sqlite-path", "", "source sqlite database file")
	cmd.Flags().StringVar(&fromPrefix, "from-table-prefix", "", "source postgres table prefix")
	return cmd
}
