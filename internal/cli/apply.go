package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/uniorm/internal/orm"
)

// TableInfo describes one registered table.
type TableInfo struct {
	Name       string   `json:"name"`
	PrimaryKey string   `json:"primary_key"`
	Columns    []string `json:"columns"`
	References []string `json:"references,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <declarations>",
		Short: "Register declared tables, creating missing ones",
		Long: `Register every table in a declaration file or CUE directory.

Tables are registered in foreign key dependency order. Missing tables are
created; existing tables are left untouched.

Examples:
  uniorm apply ./schema
  uniorm apply library.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(rootOpts, args[0], cmd)
		},
	}
}

func runApply(opts *RootOptions, declPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	s, err := openSession(cmd.Context(), opts, cmd.ErrOrStderr(), declPath)
	if err != nil {
		return f.Fail(ExitCommandError, "apply failed", err)
	}
	defer s.close()

	schemas := s.db.Schemas()
	infos := make([]TableInfo, len(schemas))
	lines := make([]string, len(schemas))
	for i, schema := range schemas {
		infos[i] = tableInfo(schema)
		lines[i] = fmt.Sprintf("\u2713 %s %v", schema.Name(), schema.Columns())
	}
	return f.Success(infos, lines...)
}

func tableInfo(s *orm.Schema) TableInfo {
	return TableInfo{
		Name:       s.Name(),
		PrimaryKey: s.PrimaryKey(),
		Columns:    s.Columns(),
		References: s.References(),
	}
}
