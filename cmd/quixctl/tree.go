package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"quix/internal/filetree"
	"quix/internal/service/auth"
	"quix/internal/service/workspace"
)

func newTreeCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the actor's folder tree",
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

			records, err := workspace.NewService(backend.Store, auth.NewOwnerBasedAuthorizer(backend.Store), a.logger).Tree(ctx, actor)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			printTree(cmd.OutOrStdout(), filetree.BuildTree(records), 0)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print flat records as JSON")
	return cmd
}

// printTree writes folders before files, one item per line
func printTree(w io.Writer, folder *filetree.Folder, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, sub := range folder.Folders() {
		fmt.Fprintf(w, "%s%s/\n", indent, sub.Name())
		printTree(w, sub, depth+1)
	}
	for _, file := range folder.Files() {
		fmt.Fprintf(w, "%s%s [%s]\n", indent, file.Name(), file.Type())
	}
}
