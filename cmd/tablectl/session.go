package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	controls "github.com/goliatone/go-table-controls"
	"github.com/goliatone/go-table-controls/pkg/activity"
	"github.com/goliatone/go-table-controls/pkg/activity/usersink"
	"github.com/goliatone/go-table-controls/pkg/state"
	"github.com/goliatone/go-table-controls/pkg/state/sqlitestore"
	usertypes "github.com/goliatone/go-users/pkg/types"
)

const auditFileName = "activity.jsonl"

type sessionOptions struct {
	query    string
	compound bool
	engine   string
	user     string
	audit    bool
}

// session is one invocation's view of the table and the stores behind it.
type session struct {
	table  *controls.Controls[Vulnerability]
	target controls.PersistTarget
	query  *state.QueryStore
	local  *sqlitestore.Store
	audit  *os.File
	ctx    context.Context
}

func (a *app) openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	target, err := controls.ParsePersistTarget(a.cfg.GetString(cfgKeyPersistTo))
	if err != nil {
		return nil, userError{err}
	}
	s := &session{target: target, ctx: ctx}
	if opts.user != "" {
		s.ctx = activity.WithActor(ctx, activity.Actor{ID: opts.user, UserID: opts.user})
	}

	options := []controls.Option{
		controls.WithStateLogger(stateLogger(a.logger)),
		controls.WithEvaluatorLogger(evaluatorLogger(a.logger)),
		controls.WithProgramCache(controls.NewMemoryProgramCache()),
	}
	registry := controls.NewFunctionRegistry()
	if err := registry.Register("severityRank", severityRankFunction); err != nil {
		return nil, err
	}
	switch opts.engine {
	case "", "expr":
		options = append(options, controls.WithFunctionRegistry(registry))
	case "cel":
		options = append(options, controls.WithEvaluator(controls.NewCELEvaluator(
			controls.CELWithFunctionRegistry(registry),
		)))
	case "js":
		if !controls.JSEvaluatorAvailable() {
			return nil, userError{errors.New("the js engine requires a build with -tags js_eval")}
		}
		options = append(options, controls.WithEvaluator(controls.NewJSEvaluator(
			controls.JSWithFunctionRegistry(registry),
		)))
	default:
		return nil, userError{fmt.Errorf("unknown engine %q (valid: expr, cel, js)", opts.engine)}
	}

	switch target {
	case controls.PersistLocalStorage:
		store, err := sqlitestore.OpenDir(a.dataDir)
		if err != nil {
			return nil, err
		}
		s.local = store
		options = append(options, controls.WithLocalStorage(store))
	case controls.PersistURLParams:
		query, err := state.ParseQueryStore(opts.query)
		if err != nil {
			return nil, userError{fmt.Errorf("parse --query: %w", err)}
		}
		s.query = query
		options = append(options, controls.WithURLParams(query))
	case controls.PersistSessionStorage:
		options = append(options, controls.WithSessionStorage(state.NewSessions().Session(state.NewSessionID())))
	}

	var hooks activity.Hooks
	if opts.audit {
		file, err := os.OpenFile(filepath.Join(a.dataDir, auditFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		s.audit = file
		hooks = append(hooks, usersink.Hook{Sink: &jsonActivitySink{enc: json.NewEncoder(file)}})
	}
	if a.verbose {
		hooks = append(hooks, activity.HookFunc(func(_ context.Context, event activity.Event) error {
			a.logger.Debug("table event", "verb", event.Verb, "object", event.ObjectID, "actor", event.ActorID)
			return nil
		}))
	}
	options = append(options, controls.WithActivityHooks(hooks))

	cfg := tableConfig(
		a.cfg.GetString(cfgKeyTableName),
		a.cfg.GetString(cfgKeyPrefix),
		a.cfg.GetInt(cfgKeyPerPage),
		target,
		opts.compound,
	)
	table, err := controls.New(s.ctx, cfg, options...)
	if err != nil {
		s.Close()
		var cfgErr *controls.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, userError{err}
		}
		return nil, err
	}
	s.table = table
	return s, nil
}

func (s *session) Close() error {
	var errs []error
	if s.local != nil {
		errs = append(errs, s.local.Close())
	}
	if s.audit != nil {
		errs = append(errs, s.audit.Close())
	}
	return errors.Join(errs...)
}

// reset deletes the persisted state of every feature.
func (s *session) reset() error {
	switch {
	case s.local != nil:
		for _, feature := range controls.Features() {
			ref := state.Ref{Prefix: s.table.KeyPrefix(), Feature: string(feature)}
			if err := s.local.Delete(s.ctx, ref); err != nil {
				return fmt.Errorf("reset %s: %w", feature, err)
			}
		}
	case s.query != nil:
		s.query = state.NewQueryStore(nil)
	}
	return nil
}

// jsonActivitySink appends go-users activity records as JSON lines.
type jsonActivitySink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (s *jsonActivitySink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(record)
}

func stateLogger(logger *slog.Logger) controls.StateLogger {
	return controls.StateLoggerFunc(func(event controls.StateLogEvent) {
		level := slog.LevelDebug
		if event.Err != nil {
			level = slog.LevelWarn
		}
		logger.LogAttrs(context.Background(), level, "table state",
			slog.String("table", event.Table),
			slog.String("feature", string(event.Feature)),
			slog.String("action", event.Action),
			slog.String("key", event.Key),
			slog.String("target", event.Target),
			slog.Duration("duration", event.Duration),
			slog.Any("err", event.Err),
		)
	})
}

func evaluatorLogger(logger *slog.Logger) controls.EvaluatorLogger {
	return controls.FailuresOnly(controls.EvaluatorLoggerFunc(func(event controls.EvaluatorLogEvent) {
		logger.Warn("filter expression failed",
			"engine", event.Engine,
			"category", event.Category,
			"value", event.Value,
			"item", event.ItemID,
			"expr", event.Expr,
			"err", event.Err,
		)
	}))
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
