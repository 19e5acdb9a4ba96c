package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/metascan/internal/store"
)

func (c *cli) mergeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "merge <snapshot>... --out FILE",
		Short: "Merge snapshots into one",
		Long:  "Loads every snapshot, unions their facts and writes the result. Input and output formats may differ.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = c.cfg.Snapshot.Path
			}
			merged := store.New()
			for _, path := range args {
				s, err := store.LoadFile(path)
				if err != nil {
					return fmt.Errorf("loading %s: %w", path, err)
				}
				c.logger.Debug("merge.loaded", "path", path, "facts", s.Len())
				merged.Merge(s)
			}
			if err := store.SaveFile(out, merged); err != nil {
				return fmt.Errorf("writing snapshot: %w", err)
			}
			return c.output("merge", CLIMergeSummary{Inputs: args, Facts: merged.Len(), Snapshot: out})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output snapshot (default: snapshot.path)")
	return cmd
}
