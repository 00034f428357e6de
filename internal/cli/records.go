package cli

import (
	"github.com/spf13/cobra"
)

// RecordOptions holds flags for the create, list and find commands.
type RecordOptions struct {
	*RootOptions
	Set   []string
	Where []string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <declarations> <table>",
		Short: "Insert a row",
		Long: `Insert one row into a declared table and print it with its new id.

Values are given as column=value and parsed according to the column type.
The literal null stands for a null value.

Examples:
  uniorm create library.yaml Author --set name=Herbert
  uniorm create library.yaml Book --set title=Dune --set author=1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "column=value to insert (repeatable)")
	return cmd
}

func runCreate(opts *RecordOptions, declPath, table string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	s, err := openSession(ctx, opts.RootOptions, cmd.ErrOrStderr(), declPath)
	if err != nil {
		return f.Fail(ExitCommandError, "create failed", err)
	}
	defer s.close()

	schema, err := s.schema(table)
	if err != nil {
		return f.Fail(ExitCommandError, "create failed", err)
	}
	values, err := parseAssignments(schema, opts.Set)
	if err != nil {
		return f.Fail(ExitCommandError, "create failed", err)
	}
	rec, err := s.db.Create(ctx, schema, values)
	if err != nil {
		return f.Fail(ExitFailure, "create failed", err)
	}
	return f.Success(recordData(rec), recordLine(rec))
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	return &cobra.Command{
		Use:   "list <declarations> <table>",
		Short: "Print every row of a table",
		Long: `Print every row of a declared table in primary key order.

Examples:
  uniorm list library.yaml Book
  uniorm list ./schema Author --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args[0], args[1], cmd)
		},
	}
}

func runList(opts *RecordOptions, declPath, table string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	s, err := openSession(ctx, opts.RootOptions, cmd.ErrOrStderr(), declPath)
	if err != nil {
		return f.Fail(ExitCommandError, "list failed", err)
	}
	defer s.close()

	schema, err := s.schema(table)
	if err != nil {
		return f.Fail(ExitCommandError, "list failed", err)
	}
	records, err := s.db.All(ctx, schema)
	if err != nil {
		return f.Fail(ExitFailure, "list failed", err)
	}

	data := make([]map[string]any, len(records))
	lines := make([]string, len(records))
	for i, rec := range records {
		data[i] = recordData(rec)
		lines[i] = recordLine(rec)
	}
	f.VerboseLog("%d rows", len(records))
	return f.Success(data, lines...)
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find <declarations> <table>",
		Short: "Print the single row matching a filter",
		Long: `Print the single row whose columns equal every --where value.

An empty filter or more than one match is an error. No match prints
nothing in text mode and a response without data in JSON mode.

Examples:
  uniorm find library.yaml Author --where name=Herbert
  uniorm find library.yaml Book --where author=1 --where title=Dune`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "column=value equality filter (repeatable)")
	return cmd
}

func runFind(opts *RecordOptions, declPath, table string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	s, err := openSession(ctx, opts.RootOptions, cmd.ErrOrStderr(), declPath)
	if err != nil {
		return f.Fail(ExitCommandError, "find failed", err)
	}
	defer s.close()

	schema, err := s.schema(table)
	if err != nil {
		return f.Fail(ExitCommandError, "find failed", err)
	}
	where, err := parseAssignments(schema, opts.Where)
	if err != nil {
		return f.Fail(ExitCommandError, "find failed", err)
	}
	rec, found, err := s.db.Find(ctx, schema, where)
	if err != nil {
		return f.Fail(ExitFailure, "find failed", err)
	}
	if !found {
		f.VerboseLog("no %s row matches %v", table, opts.Where)
		return f.Success(nil)
	}
	return f.Success(recordData(rec), recordLine(rec))
}
