package changeset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-customize/layering"
)

var ErrETagMismatch = errors.New("changeset: etag mismatch")

var ErrNotFound = errors.New("changeset: not found")

// Changeset lifecycle statuses. A changeset starts as a draft, moves to
// pending when submitted (optionally with a schedule), and is marked
// published by Manager.Publish just before it leaves the store.
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusPublished = "published"
)

// Ref identifies one persisted changeset inside one scope.
type Ref struct {
	UUID  string
	Scope string
}

// NewRef mints a Ref with a fresh UUID for scope.
func NewRef(scope string) Ref {
	return Ref{UUID: uuid.NewString(), Scope: scope}
}

// Identifier returns the canonical storage key for the reference. The UUID is
// validated and normalized to its canonical lowercase form.
func (r Ref) Identifier() (string, error) {
	if r.Scope == "" {
		return "", fmt.Errorf("changeset: scope is required")
	}
	id, err := uuid.Parse(r.UUID)
	if err != nil {
		return "", fmt.Errorf("changeset: invalid uuid %q: %w", r.UUID, err)
	}
	return fmt.Sprintf("%s/%s", r.Scope, id.String()), nil
}

// Changeset is a named batch of staged setting values. Values maps setting
// identifiers to the raw staged payloads, including delete markers.
type Changeset struct {
	Status    string         `json:"status,omitempty"`
	PublishAt *time.Time     `json:"publish_at,omitempty"`
	Values    map[string]any `json:"values,omitempty"`
}

// Validate checks the status enum and schedule coherence. Only pending
// changesets may carry a publish schedule.
func (c Changeset) Validate() error {
	switch c.Status {
	case StatusDraft, StatusPending, StatusPublished:
	default:
		return fmt.Errorf("changeset: unknown status %q", c.Status)
	}
	if c.PublishAt != nil && c.Status != StatusPending {
		return fmt.Errorf("changeset: publish schedule requires status %q, have %q", StatusPending, c.Status)
	}
	return nil
}

// Clone returns a deep copy detached from the receiver's values.
func (c Changeset) Clone() Changeset {
	out := c
	if c.PublishAt != nil {
		at := *c.PublishAt
		out.PublishAt = &at
	}
	if c.Values != nil {
		out.Values, _ = layering.Clone(c.Values).(map[string]any)
	}
	return out
}

// SettingIDs returns the staged setting identifiers in sorted order.
func (c Changeset) SettingIDs() []string {
	ids := make([]string, 0, len(c.Values))
	for id := range c.Values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Meta is storage-owned metadata used for audit and optimistic concurrency.
// ETag is assigned by the store on save; callers echo it back through Mutate
// to guard against concurrent writers.
type Meta struct {
	Revision  int64             `json:"revision,omitempty"`
	ETag      string            `json:"etag,omitempty"`
	UpdatedAt time.Time         `json:"updated_at,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Store persists changesets keyed by Ref.Identifier().
type Store interface {
	Load(ctx context.Context, ref Ref) (Changeset, Meta, bool, error)
	Save(ctx context.Context, ref Ref, cs Changeset, meta Meta) (Meta, error)
	Delete(ctx context.Context, ref Ref) error
}

// Mutator edits a loaded changeset in place.
type Mutator func(*Changeset) error

// ApplyFunc receives one staged value during publish.
type ApplyFunc func(ctx context.Context, settingID string, value any) error

// Manager orchestrates load/mutate/save cycles over a Store.
type Manager struct {
	Store Store
}

// Mutate loads the changeset for ref, applies fn, validates the result, and
// saves it. A missing changeset starts as an empty draft. When meta.ETag is
// set it must match the stored ETag or the mutation fails with
// ErrETagMismatch before fn runs.
func (m Manager) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (Changeset, Meta, error) {
	if m.Store == nil {
		return Changeset{}, Meta{}, fmt.Errorf("changeset: store is required")
	}
	if fn == nil {
		return Changeset{}, Meta{}, fmt.Errorf("changeset: mutator is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return Changeset{}, Meta{}, err
	}

	cs, loadedMeta, ok, err := m.Store.Load(ctx, ref)
	if err != nil {
		return Changeset{}, Meta{}, fmt.Errorf("changeset: load %q in scope %q: %w", ref.UUID, ref.Scope, err)
	}
	if !ok {
		cs = Changeset{Status: StatusDraft, Values: map[string]any{}}
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return Changeset{}, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&cs); err != nil {
		return Changeset{}, loadedMeta, err
	}
	if cs.Status == "" {
		cs.Status = StatusDraft
	}
	if err := cs.Validate(); err != nil {
		return Changeset{}, loadedMeta, err
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.Revision = loadedMeta.Revision + 1
	savedMeta, err := m.Store.Save(ctx, ref, cs, saveMeta)
	if err != nil {
		return Changeset{}, loadedMeta, fmt.Errorf("changeset: save %q in scope %q: %w", ref.UUID, ref.Scope, err)
	}
	return cs, savedMeta, nil
}

// Stage records one staged value under settingID via Mutate.
func (m Manager) Stage(ctx context.Context, ref Ref, settingID string, value any) (Changeset, Meta, error) {
	if settingID == "" {
		return Changeset{}, Meta{}, fmt.Errorf("changeset: setting identifier is required")
	}
	return m.Mutate(ctx, ref, Meta{}, func(cs *Changeset) error {
		if cs.Values == nil {
			cs.Values = map[string]any{}
		}
		cs.Values[settingID] = layering.Clone(value)
		return nil
	})
}

// Discard removes the staged value for settingID via Mutate.
func (m Manager) Discard(ctx context.Context, ref Ref, settingID string) (Changeset, Meta, error) {
	return m.Mutate(ctx, ref, Meta{}, func(cs *Changeset) error {
		delete(cs.Values, settingID)
		return nil
	})
}

// Publish runs apply over every staged value in sorted setting order, marks
// the changeset published, and deletes it from the store. A future schedule
// refuses to publish. The changeset stays stored when apply fails.
func (m Manager) Publish(ctx context.Context, ref Ref, meta Meta, apply ApplyFunc) (Changeset, Meta, error) {
	if m.Store == nil {
		return Changeset{}, Meta{}, fmt.Errorf("changeset: store is required")
	}
	if apply == nil {
		return Changeset{}, Meta{}, fmt.Errorf("changeset: apply function is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return Changeset{}, Meta{}, err
	}

	cs, loadedMeta, ok, err := m.Store.Load(ctx, ref)
	if err != nil {
		return Changeset{}, Meta{}, fmt.Errorf("changeset: load %q in scope %q: %w", ref.UUID, ref.Scope, err)
	}
	if !ok {
		return Changeset{}, Meta{}, fmt.Errorf("%w: %q in scope %q", ErrNotFound, ref.UUID, ref.Scope)
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return Changeset{}, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}
	if cs.PublishAt != nil && time.Now().Before(*cs.PublishAt) {
		return Changeset{}, loadedMeta, fmt.Errorf("changeset: publish scheduled for %s", cs.PublishAt.Format(time.RFC3339))
	}

	for _, id := range cs.SettingIDs() {
		if err := apply(ctx, id, cs.Values[id]); err != nil {
			return Changeset{}, loadedMeta, fmt.Errorf("changeset: apply %q: %w", id, err)
		}
	}

	cs.Status = StatusPublished
	cs.PublishAt = nil
	if err := m.Store.Delete(ctx, ref); err != nil {
		return Changeset{}, loadedMeta, fmt.Errorf("changeset: delete %q in scope %q: %w", ref.UUID, ref.Scope, err)
	}
	return cs, loadedMeta, nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
