package customize

import (
	"context"

	"github.com/goliatone/go-customize/pkg/activity"
)

// WithActivityHooks attaches activity hooks notified after every commit.
// Hooks are cloned and nil entries dropped to preserve immutability.
func WithActivityHooks(hooks activity.Hooks) SettingOption {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *settingConfig) {
		cfg.activityHooks = normalized
	}
}

// ActivityHooks returns a cloned slice of the configured activity hooks. The
// returned slice can be safely mutated by the caller.
func (s *ItemSetting) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return cloneActivityHooks(s.cfg.activityHooks)
}

func (s *ItemSetting) emitActivity(ctx context.Context, outcome Outcome) {
	hooks := s.cfg.activityHooks
	if len(hooks) == 0 {
		return
	}
	input := activity.SettingEventInput{
		SettingID:     outcome.Setting,
		TransactionID: s.cfg.transaction.ID(),
		Scope:         s.scopeID(),
		Key:           outcome.Key,
		PreviousKey:   outcome.PreviousKey,
		Code:          outcome.Code,
	}
	var event activity.Event
	switch outcome.Status {
	case OutcomeInserted:
		event = activity.BuildSettingInsertedEvent(input)
	case OutcomeUpdated:
		event = activity.BuildSettingUpdatedEvent(input)
	case OutcomeDeleted:
		event = activity.BuildSettingDeletedEvent(input)
	default:
		event = activity.BuildSettingCommitFailedEvent(input)
	}
	if err := hooks.Notify(ctx, event); err != nil {
		s.log(LogEvent{Op: "activity", Setting: outcome.Setting, Scope: s.scopeID(), Err: err})
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
