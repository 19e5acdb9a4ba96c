package main

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/jward/metascan"
	"github.com/jward/metascan/internal/store"
)

func (c *cli) queryCmd() *cobra.Command {
	var snapshot string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query a snapshot",
		Long:  "Run reverse lookups against a snapshot written by scan, merge or resolve --save. Member results are keys of the form unit.name(T1, T2).",
	}
	cmd.PersistentFlags().StringVar(&snapshot, "snapshot", "", "snapshot file (default: snapshot.path)")

	// open loads the snapshot and wraps it in a QueryBuilder.
	open := func() (*metascan.QueryBuilder, error) {
		path := snapshot
		if path == "" {
			path = c.cfg.Snapshot.Path
		}
		s, err := store.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("opening snapshot: %w", err)
		}
		s.Seal()
		return metascan.NewQueryBuilder(s), nil
	}

	// names builds a subcommand whose result is a name list.
	names := func(use, short string, args cobra.PositionalArgs, run func(q *metascan.QueryBuilder, args []string) []string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				q, err := open()
				if err != nil {
					return err
				}
				return c.output(cmd.Name(), run(q, args))
			},
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List store categories with key and fact counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := open()
			if err != nil {
				return err
			}
			s := q.Store()
			cats := []CLICategory{}
			for _, name := range s.Categories() {
				cat := CLICategory{Name: name, Keys: len(s.Keys(name))}
				for _, k := range s.Keys(name) {
					cat.Facts += len(s.Get(name, k))
				}
				cats = append(cats, cat)
			}
			return c.output("categories", cats)
		},
	})

	cmd.AddCommand(names("lookup <category> <key>", "Raw values stored under a category and key", cobra.ExactArgs(2),
		func(q *metascan.QueryBuilder, args []string) []string { return q.Lookup(args[0], args[1]) }))

	cmd.AddCommand(names("types", "Every scanned unit", cobra.NoArgs,
		func(q *metascan.QueryBuilder, _ []string) []string { return q.AllTypes() }))

	cmd.AddCommand(names("subtypes <type>", "Direct and transitive subtypes", cobra.ExactArgs(1),
		func(q *metascan.QueryBuilder, args []string) []string { return q.SubTypesOf(args[0]) }))

	var meta bool
	annotated := names("annotated <annotation>", "Units annotated with an annotation", cobra.ExactArgs(1),
		func(q *metascan.QueryBuilder, args []string) []string { return q.TypesAnnotatedWith(args[0], meta) })
	annotated.Flags().BoolVar(&meta, "meta", false, "include units reached through meta-annotations")
	cmd.AddCommand(annotated)

	var paramCtors bool
	params := names("params [type]...", "Methods whose parameter types are exactly the given list", cobra.ArbitraryArgs,
		func(q *metascan.QueryBuilder, args []string) []string {
			if paramCtors {
				return q.ConstructorsMatchParams(args...)
			}
			return q.MethodsMatchParams(args...)
		})
	params.Flags().BoolVar(&paramCtors, "constructors", false, "match constructors instead of methods")
	cmd.AddCommand(params)

	cmd.AddCommand(names("returns <type>", "Methods returning a type", cobra.ExactArgs(1),
		func(q *metascan.QueryBuilder, args []string) []string { return q.MethodsReturn(args[0]) }))

	var from []string
	var to string
	converters := names("converters --from T [--from T]... --to T", "Methods taking the --from types and returning --to", cobra.NoArgs,
		func(q *metascan.QueryBuilder, _ []string) []string { return q.ConvertersFromParams(from, to) })
	converters.Flags().StringArrayVar(&from, "from", nil, "parameter type, in order (repeatable)")
	converters.Flags().StringVar(&to, "to", "", "return type")
	_ = converters.MarkFlagRequired("to")
	cmd.AddCommand(converters)

	var paCtors bool
	paramAnnotated := names("param-annotated <annotation>", "Methods with a parameter carrying an annotation", cobra.ExactArgs(1),
		func(q *metascan.QueryBuilder, args []string) []string {
			if paCtors {
				return q.ConstructorsWithParamAnnotated(args[0])
			}
			return q.MethodsWithParamAnnotated(args[0])
		})
	paramAnnotated.Flags().BoolVar(&paCtors, "constructors", false, "match constructors instead of methods")
	cmd.AddCommand(paramAnnotated)

	cmd.AddCommand(names("fields <annotation>", "Fields annotated with an annotation", cobra.ExactArgs(1),
		func(q *metascan.QueryBuilder, args []string) []string { return q.FieldsAnnotatedWith(args[0]) }))

	var mCtors bool
	methods := names("methods <annotation>", "Methods annotated with an annotation", cobra.ExactArgs(1),
		func(q *metascan.QueryBuilder, args []string) []string {
			if mCtors {
				return q.ConstructorsAnnotatedWith(args[0])
			}
			return q.MethodsAnnotatedWith(args[0])
		})
	methods.Flags().BoolVar(&mCtors, "constructors", false, "match constructors instead of methods")
	cmd.AddCommand(methods)

	var category string
	matching := &cobra.Command{
		Use:   "matching <regex>",
		Short: "Stored values fully matched by a regular expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			re, err := regexp.Compile(args[0])
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", args[0], err)
			}
			q, err := open()
			if err != nil {
				return err
			}
			return c.output("matching", q.ValuesMatching(category, re))
		},
	}
	matching.Flags().StringVar(&category, "category", "", "restrict to one category")
	cmd.AddCommand(matching)

	return cmd
}
