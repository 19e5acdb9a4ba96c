package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/metascan"
)

func (c *cli) resolveCmd() *cobra.Command {
	var (
		bases      []string
		additional []string
		includes   []string
		excludes   []string
		collect    bool
		save       bool
		root       string
		sequential bool
	)
	cmd := &cobra.Command{
		Use:   "resolve [dir]",
		Short: "Select candidate units by filter",
		Long:  "Selects the units under the --base packages that match any --include filter and no --exclude filter. Filters are annotation:NAME, assignable:TYPE or regex:EXPR. With --collect, snapshots under --root are consulted before scanning.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir, err := resolveTargetDir(args)
			if err != nil {
				return err
			}
			if root == "" {
				root = dir
			}

			req := metascan.Request{
				BasePackages:       bases,
				AdditionalPackages: additional,
				Collect:            collect,
				Save:               save,
				SnapshotRoot:       root,
				Sequential:         sequential,
			}
			if req.Include, err = parseFilters(includes); err != nil {
				return err
			}
			if req.Exclude, err = parseFilters(excludes); err != nil {
				return err
			}

			engine, err := c.newEngine("", nil)
			if err != nil {
				return fmt.Errorf("creating engine: %w", err)
			}
			reader, err := c.loadSources(ctx, dir)
			if err != nil {
				return err
			}
			req.Refs = reader.Refs()
			req.Reader = c.sourceReader(reader)

			res, err := engine.Resolve(ctx, req)
			if err != nil {
				return err
			}
			return c.output("resolve", CLIResolution{
				Candidates:   res.Candidates,
				FromSnapshot: res.FromSnapshot,
				SavedTo:      res.SavedTo,
				Facts:        res.Store.Len(),
			})
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&bases, "base", nil, "base package prefix (repeatable; the first names the snapshot)")
	f.StringArrayVar(&additional, "also", nil, "additional package prefix to scan (repeatable)")
	f.StringArrayVar(&includes, "include", nil, "include filter kind:arg (repeatable)")
	f.StringArrayVar(&excludes, "exclude", nil, "exclude filter kind:arg (repeatable)")
	f.BoolVar(&collect, "collect", false, "load existing snapshots before scanning")
	f.BoolVar(&save, "save", false, "save a fresh scan as a snapshot")
	f.StringVar(&root, "root", "", "snapshot root directory (default: dir)")
	f.BoolVar(&sequential, "sequential", false, "scan on a single goroutine")
	return cmd
}

func parseFilters(specs []string) ([]metascan.Filter, error) {
	filters := make([]metascan.Filter, 0, len(specs))
	for _, s := range specs {
		f, err := metascan.ParseFilter(s)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}
