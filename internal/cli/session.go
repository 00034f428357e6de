package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/uniorm/internal/audit"
	"github.com/roach88/uniorm/internal/config"
	"github.com/roach88/uniorm/internal/declare"
	"github.com/roach88/uniorm/internal/gateway"
	"github.com/roach88/uniorm/internal/orm"
)

// session is an open record engine with its audit log.
type session struct {
	cfg    *config.Config
	db     *orm.DB
	logger *slog.Logger
}

// loadConfig resolves configuration and builds the logger. --verbose
// forces debug logging.
func loadConfig(opts *RootOptions, logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})
	return cfg, slog.New(handler), nil
}

// openSession connects to the configured backend and audit log and
// applies the declarations at declPath.
func openSession(ctx context.Context, opts *RootOptions, logOut io.Writer, declPath string) (*session, error) {
	cfg, logger, err := loadConfig(opts, logOut)
	if err != nil {
		return nil, err
	}

	logger.Debug("opening database", "backend", cfg.Backend)
	conn, err := cfg.Open()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	logger.Debug("opening audit log", "path", cfg.Audit.Path)
	auditLog, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		conn.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open audit log", err)
	}

	gw, err := gateway.New(conn, gateway.WithLogger(logger), gateway.WithAudit(auditLog))
	if err != nil {
		conn.Close()
		auditLog.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create gateway", err)
	}
	s := &session{cfg: cfg, db: orm.New(gw, orm.WithLogger(logger)), logger: logger}

	schemas, err := declare.ApplyPath(ctx, s.db, declPath)
	if err != nil {
		s.close()
		return nil, WrapExitError(ExitCommandError, "failed to apply declarations", err)
	}
	logger.Info("declarations applied", "path", declPath, "tables", len(schemas))
	return s, nil
}

// schema returns the registered table name.
func (s *session) schema(name string) (*orm.Schema, error) {
	schema, ok := s.db.Schema(name)
	if !ok {
		return nil, NewExitError(ExitCommandError, "table "+name+" is not declared")
	}
	return schema, nil
}

func (s *session) close() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}
