package customize

import (
	"context"

	"github.com/goliatone/go-customize/layering"
)

// overlayState tracks preview activation for one setting instance. Activation
// is permanent for the life of the instance; there is no deactivation.
type overlayState struct {
	active         bool
	scope          string
	original       *ItemRecord
	originalMenuID int64
}

// Provenance reports which layer supplied a resolved record.
type Provenance struct {
	Source  layering.SourceLevel
	Setting string
	Scope   string
}

// ActivatePreview turns on the session overlay. The first call captures the
// stored resolution as the original value, records the session scope, and
// registers the setting as a listing filter for its owning menus. Repeat
// calls are no-ops.
func (s *ItemSetting) ActivatePreview(ctx context.Context) error {
	if s.overlay.active {
		return nil
	}
	scope := s.scopeID()
	original, _ := s.resolveStored(ctx)
	s.overlay = overlayState{
		active:   true,
		scope:    scope,
		original: original,
	}
	if original != nil {
		s.overlay.originalMenuID = original.MenuID
	}
	s.registerListingFilter(ctx)
	s.log(LogEvent{Op: "activate", Setting: s.id.String(), Scope: scope})
	return nil
}

// Resolve returns the effective record for the current session: the staged
// value while the overlay is active in its scope, the captured original when
// nothing is staged, and the stored record otherwise. It never fails; storage
// problems fall back to the defaults and are logged. A nil result is a staged
// deletion.
func (s *ItemSetting) Resolve(ctx context.Context) *ItemRecord {
	record, _ := s.resolveWithSource(ctx)
	return record
}

// ResolveWithProvenance resolves like Resolve and reports which layer
// supplied the value.
func (s *ItemSetting) ResolveWithProvenance(ctx context.Context) (*ItemRecord, Provenance) {
	record, source := s.resolveWithSource(ctx)
	return record, Provenance{
		Source:  source,
		Setting: s.id.String(),
		Scope:   s.scopeID(),
	}
}

func (s *ItemSetting) resolveWithSource(ctx context.Context) (*ItemRecord, layering.SourceLevel) {
	if s.overlay.active && s.overlay.scope == s.scopeID() {
		if staged, ok := s.stagedValue(); ok {
			record, err := s.Sanitize(staged)
			if err != nil {
				s.log(LogEvent{Op: "resolve", Setting: s.id.String(), Scope: s.overlay.scope, Err: err})
				return s.overlay.original.Clone(), layering.SourceOriginal
			}
			return record, layering.SourceStaged
		}
		return s.overlay.original.Clone(), layering.SourceOriginal
	}
	return s.resolveStored(ctx)
}

// resolveStored performs the non-overlay resolution: fetch real keys from
// storage, fall back to the defaults for placeholders, missing records, and
// storage failures.
func (s *ItemSetting) resolveStored(ctx context.Context) (*ItemRecord, layering.SourceLevel) {
	defaults := s.defaults()
	if s.id.IsPlaceholder() || s.cfg.store == nil {
		return &defaults, layering.SourceDefaults
	}
	record, found, err := s.cfg.store.FetchItem(ctx, s.id.Key())
	if err != nil {
		s.log(LogEvent{Op: "resolve", Setting: s.id.String(), Scope: s.scopeID(), Err: err})
		return &defaults, layering.SourceDefaults
	}
	if !found {
		return &defaults, layering.SourceDefaults
	}
	return &record, layering.SourceStored
}

// registerListingFilter installs this setting as a read-through filter under
// every menu its record can belong to this session: the stored menu and, when
// the staged value moves the item, the staged menu.
func (s *ItemSetting) registerListingFilter(ctx context.Context) {
	filters := s.cfg.filters
	if filters == nil {
		return
	}
	menuIDs := map[int64]struct{}{}
	if s.overlay.originalMenuID > 0 {
		menuIDs[s.overlay.originalMenuID] = struct{}{}
	}
	if record, _ := s.resolveWithSource(ctx); record != nil && record.MenuID > 0 {
		menuIDs[record.MenuID] = struct{}{}
	}
	for menuID := range menuIDs {
		filters.Register(menuID, s)
	}
}
