package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"quix/internal/fixture"
)

func newEmitCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "emit -f FILE",
		Short: "Apply the batches of a YAML or JSON action file",
		Long: `Apply every batch of an action file in order. Each batch is atomic;
the first failing batch stops the command and earlier batches stay applied.

Examples:
  quixctl emit -f batch.yaml --actor alice
  quixctl emit -f export.json --driver sqlite --sqlite-path data/quix.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			f, err := fixture.LoadFile(file)
			if err != nil {
				return err
			}
			actor, err := a.actor(f.Actor)
			if err != nil {
				return err
			}
			batches, err := f.ActionBatches()
			if err != nil {
				return err
			}

			backend, err := a.open(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer backend.Close()
			bus := a.bus(backend)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for i, actions := range batches {
				applied, err := bus.Emit(ctx, actor, actions)
				if err != nil {
					return fmt.Errorf("batch %d: %w", i+1, err)
				}
				if err := enc.Encode(applied); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "action file to apply")
	cobra.CheckErr(cmd.MarkFlagRequired("file"))
	return cmd
}
