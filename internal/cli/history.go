package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/uniorm/internal/audit"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Table string
	Limit int
}

// HistoryEntry is one audit entry in JSON output.
type HistoryEntry struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	Table     string          `json:"table"`
	Action    string          `json:"action"`
	Keys      []string        `json:"keys"`
	Values    json.RawMessage `json:"values"`
	Timestamp string          `json:"timestamp"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the audit log",
		Long: `Print audit log entries in the order they were recorded.

The audit log lives at audit.path (DB_LOG_PATH), separate from the main
database.

Examples:
  uniorm history
  uniorm history --table Book --limit 20 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "only entries for this table")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only the most recent n entries (0 for all)")
	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	cfg, logger, err := loadConfig(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return f.Fail(ExitCommandError, "history failed", err)
	}
	logger.Debug("opening audit log", "path", cfg.Audit.Path)
	auditLog, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		return f.Fail(ExitCommandError, "history failed", err)
	}
	defer func() {
		if closeErr := auditLog.Close(); closeErr != nil {
			logger.Error("error closing audit log", "error", closeErr)
		}
	}()

	var entries []audit.Entry
	if opts.Table != "" {
		entries, err = auditLog.EntriesFor(ctx, opts.Table)
	} else {
		entries, err = auditLog.Entries(ctx)
	}
	if err != nil {
		return f.Fail(ExitFailure, "history failed", err)
	}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[len(entries)-opts.Limit:]
	}

	data := make([]HistoryEntry, len(entries))
	lines := make([]string, len(entries))
	for i, e := range entries {
		ts := e.Timestamp.UTC().Format(time.RFC3339Nano)
		values := json.RawMessage(e.Values)
		if len(values) == 0 {
			values = json.RawMessage("null")
		}
		data[i] = HistoryEntry{
			ID:        e.ID,
			EventID:   e.EventID,
			Table:     e.Table,
			Action:    string(e.Action),
			Keys:      e.Keys,
			Values:    values,
			Timestamp: ts,
		}
		lines[i] = fmt.Sprintf("%d %s %-6s %s %s", e.ID, ts, e.Action, e.Table, e.Values)
	}
	return f.Success(data, lines...)
}
