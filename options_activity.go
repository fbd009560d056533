package controls

import "github.com/goliatone/go-table-controls/pkg/activity"

// WithActivityHooks emits a table.<feature>.updated event to hooks after
// every persisted mutation. Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := activity.CloneHooks(hooks)
	return func(cfg *optionsConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides activity.DefaultChannel.
func WithActivityChannel(channel string) Option {
	return func(cfg *optionsConfig) {
		cfg.activityChannel = channel
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (c *Controls[TItem]) ActivityHooks() activity.Hooks {
	if c == nil {
		return nil
	}
	return activity.CloneHooks(c.opts.activityHooks)
}

func newEmitter(cfg optionsConfig) *activity.Emitter {
	return activity.NewEmitter(cfg.activityHooks, activity.Config{
		Enabled: len(cfg.activityHooks) > 0,
		Channel: cfg.activityChannel,
	})
}
