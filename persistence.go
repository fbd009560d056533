package controls

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-table-controls/pkg/activity"
	"github.com/goliatone/go-table-controls/pkg/state"
)

// Persistence selects where a feature's state lives. It is either a
// PersistTarget or a CustomPersistence.
type Persistence interface {
	persistence()
	describe() string
}

// PersistTarget is a built-in persistence target.
type PersistTarget string

const (
	PersistState          PersistTarget = "state"
	PersistURLParams      PersistTarget = "urlParams"
	PersistLocalStorage   PersistTarget = "localStorage"
	PersistSessionStorage PersistTarget = "sessionStorage"
)

func (PersistTarget) persistence() {}

func (t PersistTarget) describe() string { return string(t) }

// Valid reports whether t is a known target.
func (t PersistTarget) Valid() bool {
	switch t {
	case PersistState, PersistURLParams, PersistLocalStorage, PersistSessionStorage:
		return true
	}
	return false
}

// ParsePersistTarget converts a configuration string into a PersistTarget.
func ParsePersistTarget(value string) (PersistTarget, error) {
	target := PersistTarget(value)
	if !target.Valid() {
		return "", fmt.Errorf("%w: persist target %q", ErrInvalidOption, value)
	}
	return target, nil
}

// CustomPersistence plugs a caller-supplied store in verbatim.
type CustomPersistence struct {
	Store state.Store
	Name  string
}

func (CustomPersistence) persistence() {}

func (c CustomPersistence) describe() string {
	if c.Name != "" {
		return "custom:" + c.Name
	}
	return "custom"
}

func persistenceSet(p Persistence) bool {
	switch v := p.(type) {
	case nil:
		return false
	case PersistTarget:
		return v != ""
	case CustomPersistence:
		return true
	}
	return false
}

type resolvedPersistence struct {
	store  state.Store
	target string
	trace  Trace
}

// resolvePersistence applies feature > table > ephemeral precedence and maps
// the winning target onto a store.
func resolvePersistence[TItem any](cfg Config[TItem], opts optionsConfig, ephemeral state.Store, feature Feature) (resolvedPersistence, error) {
	stack, err := FeatureTableFallback(feature, cfg.FeaturePersistTo[feature], cfg.PersistTo)
	if err != nil {
		return resolvedPersistence{}, configError(cfg.TableName, feature, "persistTo", err)
	}
	layer, trace, ok := stack.Resolve(string(feature), persistenceSet)
	if !ok {
		layer.Snapshot = PersistState
	}

	switch p := layer.Snapshot.(type) {
	case PersistTarget:
		var store state.Store
		switch p {
		case PersistState:
			store = ephemeral
		case PersistURLParams:
			store = opts.urlParams
		case PersistLocalStorage:
			store = opts.localStorage
		case PersistSessionStorage:
			store = opts.sessionStorage
		default:
			return resolvedPersistence{}, configError(cfg.TableName, feature, "persistTo",
				fmt.Errorf("%w: persist target %q", ErrInvalidOption, string(p)))
		}
		if store == nil {
			return resolvedPersistence{}, configError(cfg.TableName, feature, "persistTo",
				fmt.Errorf("%w: %s", ErrPersistenceUnavailable, p))
		}
		return resolvedPersistence{store: store, target: string(p), trace: trace}, nil
	case CustomPersistence:
		if p.Store == nil {
			return resolvedPersistence{}, configError(cfg.TableName, feature, "persistTo",
				fmt.Errorf("%w: custom store is nil", ErrPersistenceUnavailable))
		}
		return resolvedPersistence{store: p.Store, target: p.describe(), trace: trace}, nil
	}
	return resolvedPersistence{}, configError(cfg.TableName, feature, "persistTo", ErrInvalidOption)
}

// persister owns the store interaction of one feature. Failures are logged
// and never returned.
type persister struct {
	table   string
	feature Feature
	ref     state.Ref
	store   state.Store
	target  string
	logger  StateLogger
	emitter *activity.Emitter
	changed func()
}

func (p *persister) key() string {
	if id, err := p.ref.Identifier(); err == nil {
		return id
	}
	return string(p.feature)
}

func (p *persister) load(ctx context.Context) (state.Snapshot, bool) {
	start := time.Now()
	snapshot, _, ok, err := p.store.Load(ctx, p.ref)
	p.log(ActionLoad, time.Since(start), err)
	if err != nil || !ok {
		return nil, false
	}
	return snapshot, true
}

// commit marks the state changed, writes snapshot and emits an update event.
func (p *persister) commit(ctx context.Context, snapshot state.Snapshot, oldValue, newValue any) {
	if p.changed != nil {
		p.changed()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	meta, err := p.store.Save(ctx, p.ref, snapshot, state.Meta{})
	p.log(ActionSave, time.Since(start), err)
	if err != nil {
		return
	}
	p.emit(ctx, activity.BuildFeatureUpdatedEvent(p.eventInput(ctx, meta.SnapshotID, oldValue, newValue)))
}

// reset records a snapshot that could not be decoded and was replaced by the
// feature default.
func (p *persister) reset(ctx context.Context, cause error) {
	p.log(ActionDecode, 0, cause)
	input := p.eventInput(ctx, "", nil, nil)
	input.Metadata = map[string]any{"error": cause.Error()}
	p.emit(ctx, activity.BuildFeatureResetEvent(input))
}

func (p *persister) eventInput(ctx context.Context, snapshotID string, oldValue, newValue any) activity.FeatureEventInput {
	actor := activity.ActorFromContext(ctx)
	prefix := p.ref.Prefix
	if prefix == p.table {
		prefix = ""
	}
	return activity.FeatureEventInput{
		ActorID:    actor.ID,
		UserID:     actor.UserID,
		TenantID:   actor.TenantID,
		Table:      p.table,
		Prefix:     prefix,
		Feature:    string(p.feature),
		Target:     p.target,
		SnapshotID: snapshotID,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
}

func (p *persister) emit(ctx context.Context, event activity.Event) {
	if !p.emitter.Enabled() {
		return
	}
	if err := p.emitter.Emit(ctx, event); err != nil {
		p.log(ActionEmit, 0, err)
	}
}

func (p *persister) log(action string, duration time.Duration, err error) {
	p.logger.LogState(StateLogEvent{
		Table:    p.table,
		Feature:  p.feature,
		Action:   action,
		Key:      p.key(),
		Target:   p.target,
		Duration: duration,
		Err:      err,
	})
}
