package customize

import (
	"sync"

	"github.com/google/uuid"
)

// SaveTransaction accumulates commit outcomes for one client save request.
// Each setting registers at most one outcome; the transaction is append-only
// and read out once at finalization.
type SaveTransaction struct {
	id string

	mu       sync.Mutex
	outcomes []Outcome
	seen     map[string]struct{}
}

// NewSaveTransaction mints a transaction with a fresh uuid.
func NewSaveTransaction() *SaveTransaction {
	return &SaveTransaction{
		id:   uuid.NewString(),
		seen: map[string]struct{}{},
	}
}

// ID returns the transaction identifier.
func (t *SaveTransaction) ID() string {
	if t == nil {
		return ""
	}
	return t.id
}

// Register appends outcome unless one was already registered for the same
// setting identifier. It reports whether the outcome was appended.
func (t *SaveTransaction) Register(outcome Outcome) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seen == nil {
		t.seen = map[string]struct{}{}
	}
	if _, ok := t.seen[outcome.Setting]; ok {
		return false
	}
	t.seen[outcome.Setting] = struct{}{}
	t.outcomes = append(t.outcomes, outcome)
	return true
}

// Outcomes returns a copy of the registered outcomes in registration
// order.
func (t *SaveTransaction) Outcomes() []Outcome {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.outcomes) == 0 {
		return nil
	}
	out := make([]Outcome, len(t.outcomes))
	copy(out, t.outcomes)
	return out
}

// Len reports the number of registered outcomes.
func (t *SaveTransaction) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.outcomes)
}

// WithTransaction wires the shared save-response accumulator.
func WithTransaction(txn *SaveTransaction) SettingOption {
	return func(cfg *settingConfig) {
		cfg.transaction = txn
	}
}
