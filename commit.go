package customize

import (
	"context"
	"time"
)

// Commit applies value to storage at most once for this setting. A nil value
// is the delete marker; anything else must be a record that already passed
// Sanitize. The outcome is stored on the instance, registered exactly once
// with the save transaction, and returned as-is on repeat calls without
// touching storage again. Commit never raises; failures surface as an error
// outcome.
func (s *ItemSetting) Commit(ctx context.Context, value *ItemRecord) Outcome {
	if s.outcome != nil {
		return *s.outcome
	}
	start := time.Now()
	outcome := s.commit(ctx, value)
	s.outcome = &outcome
	if s.cfg.transaction != nil {
		s.cfg.transaction.Register(outcome)
	}
	s.log(LogEvent{
		Op:       "commit",
		Setting:  outcome.Setting,
		Scope:    s.scopeID(),
		Duration: time.Since(start),
		Err:      outcome.Err,
	})
	s.emitActivity(ctx, outcome)
	return outcome
}

func (s *ItemSetting) commit(ctx context.Context, value *ItemRecord) Outcome {
	entryID := s.id.String()
	key := s.id.Key()

	if value == nil {
		if s.id.IsPlaceholder() {
			// Nothing was ever persisted; deleting is a successful no-op.
			return Outcome{Setting: entryID, Status: OutcomeDeleted, Key: key}
		}
		if s.cfg.store == nil {
			return Outcome{Setting: entryID, Status: OutcomeError, Key: key, Code: "storage_unavailable"}
		}
		if err := s.cfg.store.DeleteItem(ctx, key); err != nil {
			return Outcome{
				Setting: entryID,
				Status:  OutcomeError,
				Key:     key,
				Code:    storageCode(err, "delete_failure"),
				Err:     err,
			}
		}
		return Outcome{Setting: entryID, Status: OutcomeDeleted, Key: key}
	}

	if s.cfg.store == nil {
		return Outcome{Setting: entryID, Status: OutcomeError, Key: key, Code: "storage_unavailable"}
	}

	upsertKey := key
	if s.id.IsPlaceholder() {
		upsertKey = 0
	}
	newKey, err := s.cfg.store.UpsertItem(ctx, value.MenuID, upsertKey, *value)
	if err != nil {
		return Outcome{
			Setting: entryID,
			Status:  OutcomeError,
			Key:     key,
			Code:    storageCode(err, "storage_error"),
			Err:     err,
		}
	}
	if s.id.IsPlaceholder() {
		previous := key
		s.id = s.id.withKey(newKey)
		return Outcome{
			Setting:     entryID,
			Status:      OutcomeInserted,
			Key:         newKey,
			PreviousKey: &previous,
		}
	}
	return Outcome{Setting: entryID, Status: OutcomeUpdated, Key: key}
}
