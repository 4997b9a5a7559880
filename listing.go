package customize

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ListingFilter corrects a menu item listing to reflect an active overlay.
type ListingFilter interface {
	FilterItems(ctx context.Context, menuID int64, items []MenuItem, args map[string]any) []MenuItem
}

// ListingFilters is an observer registry of active-overlay filters keyed by
// owning menu id. The host runs every registered filter over the results of a
// bulk listing query so a single query stays consistent with staged edits.
type ListingFilters struct {
	mu     sync.RWMutex
	byMenu map[int64][]ListingFilter
}

// NewListingFilters builds an empty registry.
func NewListingFilters() *ListingFilters {
	return &ListingFilters{byMenu: map[int64][]ListingFilter{}}
}

// Register installs filter for menuID. Registering the same filter twice for
// one menu is a no-op.
func (f *ListingFilters) Register(menuID int64, filter ListingFilter) {
	if f == nil || filter == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byMenu == nil {
		f.byMenu = map[int64][]ListingFilter{}
	}
	for _, existing := range f.byMenu[menuID] {
		if existing == filter {
			return
		}
	}
	f.byMenu[menuID] = append(f.byMenu[menuID], filter)
}

// Len reports the number of filters registered for menuID.
func (f *ListingFilters) Len(menuID int64) int {
	if f == nil {
		return 0
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.byMenu[menuID])
}

// Apply runs the filters registered for menuID over items in registration
// order.
func (f *ListingFilters) Apply(ctx context.Context, menuID int64, items []MenuItem, args map[string]any) []MenuItem {
	if f == nil {
		return items
	}
	f.mu.RLock()
	filters := append([]ListingFilter(nil), f.byMenu[menuID]...)
	f.mu.RUnlock()
	for _, filter := range filters {
		items = filter.FilterItems(ctx, menuID, items, args)
	}
	return items
}

// WithListingFilters wires the shared filter registry the setting registers
// itself into on preview activation.
func WithListingFilters(filters *ListingFilters) SettingOption {
	return func(cfg *settingConfig) {
		cfg.filters = filters
	}
}

// ListMenuItems queries the lister and corrects the result through the
// registered overlay filters.
func ListMenuItems(ctx context.Context, lister ItemLister, filters *ListingFilters, menuID int64, args map[string]any) ([]MenuItem, error) {
	if lister == nil {
		return nil, fmt.Errorf("customize: lister must not be nil")
	}
	items, err := lister.ListItems(ctx, menuID)
	if err != nil {
		return nil, err
	}
	if filters != nil {
		items = filters.Apply(ctx, menuID, items, args)
	}
	return items, nil
}

// ListItems runs a listing for menuID through the configured lister and
// filter registry. It fails when no lister was wired.
func (s *ItemSetting) ListItems(ctx context.Context, menuID int64, args map[string]any) ([]MenuItem, error) {
	return ListMenuItems(ctx, s.cfg.lister, s.cfg.filters, menuID, args)
}

// FilterItems reconciles one listing with this setting's overlay. The overlay
// wins: a staged deletion removes the item, an item moved to another menu
// disappears from its original menu's listing, a staged edit replaces the
// item in place, and an unsaved or moved-in item is appended. The corrected
// list is re-sorted by position with the key as tiebreaker. Listings of menus
// the record never belonged to pass through untouched.
func (s *ItemSetting) FilterItems(ctx context.Context, menuID int64, items []MenuItem, _ map[string]any) []MenuItem {
	record := s.Resolve(ctx)
	var currentMenuID int64
	if record != nil {
		currentMenuID = record.MenuID
	}
	if menuID != s.overlay.originalMenuID && menuID != currentMenuID {
		return items
	}

	key := s.id.Key()
	remove := record == nil || (menuID == s.overlay.originalMenuID && currentMenuID != menuID)
	if remove {
		out := make([]MenuItem, 0, len(items))
		for _, item := range items {
			if item.Key == key {
				continue
			}
			out = append(out, item)
		}
		return out
	}

	out := make([]MenuItem, 0, len(items)+1)
	replaced := false
	for _, item := range items {
		if item.Key == key {
			out = append(out, MenuItem{Key: key, Record: *record})
			replaced = true
			continue
		}
		out = append(out, item)
	}
	if !replaced {
		out = append(out, MenuItem{Key: key, Record: *record})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Record.Position == out[j].Record.Position {
			return out[i].Key < out[j].Key
		}
		return out[i].Record.Position < out[j].Record.Position
	})
	return out
}
