package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"quix/internal/fixture"
)

func newJournalCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Export the actor's journal as an action file",
		Long: `Export the actor's committed batches as a YAML action file. The file
can be applied to another store with quixctl emit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := a.actor("")
			if err != nil {
				return err
			}

			backend, err := a.open(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			entries, err := backend.Store.ListJournal(ctx, actor)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			batches, names := fixture.FromJournal(entries)
			return fixture.Encode(w, actor, batches, names)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
