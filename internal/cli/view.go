package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/uniorm/internal/view"
)

// ViewOptions holds flags for the view command.
type ViewOptions struct {
	*RootOptions
	Name   string
	Select []string
	Joins  []string
}

// ViewResult is the JSON payload of the view command.
type ViewResult struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    []view.Row `json:"rows"`
}

// NewViewCommand creates the view command.
func NewViewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ViewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "view <declarations> <base>",
		Short: "Print a table joined with the tables it references",
		Long: `Print every row of a base table flattened together with the rows its
foreign keys point at.

Each --join names a foreign key column of the base table and its target
table, optionally followed by the target columns to include. Target
columns keep their plain name unless it is already taken, in which case
they are prefixed with the target table name.

Examples:
  uniorm view library.yaml Book --join author:Author
  uniorm view library.yaml Book --select title --join author:Author:name`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "view name (default <base>View)")
	cmd.Flags().StringSliceVar(&opts.Select, "select", nil, "base columns to include (default all)")
	cmd.Flags().StringArrayVar(&opts.Joins, "join", nil, "column:Target[:col,...] to join (repeatable)")
	return cmd
}

func runView(opts *ViewOptions, declPath, base string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	s, err := openSession(ctx, opts.RootOptions, cmd.ErrOrStderr(), declPath)
	if err != nil {
		return f.Fail(ExitCommandError, "view failed", err)
	}
	defer s.close()

	baseSchema, err := s.schema(base)
	if err != nil {
		return f.Fail(ExitCommandError, "view failed", err)
	}
	v := view.New(baseSchema).Select(opts.Select...)
	if opts.Name != "" {
		v = v.Named(opts.Name)
	}
	for _, spec := range opts.Joins {
		source, targetName, cols, err := parseJoin(spec)
		if err != nil {
			return f.Fail(ExitCommandError, "view failed", err)
		}
		target, err := s.schema(targetName)
		if err != nil {
			return f.Fail(ExitCommandError, "view failed", err)
		}
		v = v.Join(source, target, cols...)
	}
	if err := v.Err(); err != nil {
		return f.Fail(ExitCommandError, "view failed", err)
	}

	rows, err := v.Rows(ctx, s.db)
	if err != nil {
		return f.Fail(ExitFailure, "view failed", err)
	}

	cols := v.Columns()
	lines := make([]string, len(rows))
	for i, row := range rows {
		parts := make([]string, len(cols))
		for j, c := range cols {
			parts[j] = c + "=" + textValue(row[c])
		}
		lines[i] = strings.Join(parts, " ")
	}
	return f.Success(ViewResult{Name: v.Name(), Columns: cols, Rows: plainRows(rows)}, lines...)
}

func plainRows(rows []view.Row) []view.Row {
	out := make([]view.Row, len(rows))
	for i, row := range rows {
		p := make(view.Row, len(row))
		for k, v := range row {
			p[k] = plainValue(v)
		}
		out[i] = p
	}
	return out
}
