package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/metascan"
	"github.com/jward/metascan/internal/store"
)

func (c *cli) scanCmd() *cobra.Command {
	var (
		out        string
		merge      bool
		scriptSpec []string
		scriptsDir string
	)
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan Java sources and write a snapshot",
		Long:  "Parses every .java file under dir, runs the built-in scanners and any --script scanners, and writes the resulting store to a snapshot (.xml, .yaml or .db).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir, err := resolveTargetDir(args)
			if err != nil {
				return err
			}
			if out == "" {
				out = c.cfg.Snapshot.Path
			}

			engine, err := c.newEngine(scriptsDir, scriptSpec)
			if err != nil {
				return fmt.Errorf("creating engine: %w", err)
			}
			reader, err := c.loadSources(ctx, dir)
			if err != nil {
				return err
			}
			refs := reader.Refs()
			res, err := engine.Scan(ctx, refs, c.sourceReader(reader))
			if err != nil {
				return fmt.Errorf("scanning: %w", err)
			}
			summary := summarize(res, len(refs))
			if res.Incomplete {
				// A partial store must not replace a complete snapshot.
				if err := c.output("scan", summary); err != nil {
					return err
				}
				return fmt.Errorf("scan interrupted after %d of %d units: %s not written", res.Scanned, len(refs), out)
			}

			result := res.Store
			if merge {
				if _, statErr := os.Stat(out); statErr == nil {
					prev, err := store.LoadFile(out)
					if err != nil {
						return fmt.Errorf("loading %s for merge: %w", out, err)
					}
					result = store.Merged(prev, res.Store)
				}
			}
			if err := store.SaveFile(out, result); err != nil {
				return fmt.Errorf("writing snapshot: %w", err)
			}

			summary.Facts = result.Len()
			summary.Snapshot = out
			return c.output("scan", summary)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "snapshot file (default: snapshot.path)")
	cmd.Flags().BoolVar(&merge, "merge", false, "merge into an existing snapshot instead of replacing it")
	cmd.Flags().StringArrayVar(&scriptSpec, "script", nil, "extra script scanner: category=path.risor or a bundled name (repeatable)")
	cmd.Flags().StringVar(&scriptsDir, "scripts-dir", "", "base directory for relative --script paths")
	return cmd
}

func summarize(res *metascan.ScanResult, refs int) CLIScanSummary {
	s := CLIScanSummary{
		ScanID:     res.ID,
		Refs:       refs,
		Scanned:    res.Scanned,
		Facts:      res.Store.Len(),
		Incomplete: res.Incomplete,
		DurationMS: res.Duration.Milliseconds(),
	}
	for _, f := range res.Failures {
		s.Failures = append(s.Failures, CLIFailure{Ref: f.Ref, Index: f.Index, Error: f.Err.Error()})
	}
	return s
}
