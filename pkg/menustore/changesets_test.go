package menustore_test

import (
	"context"
	"strings"
	"testing"
	"time"

	customize "github.com/goliatone/go-customize"
	"github.com/goliatone/go-customize/pkg/changeset"
)

func testChangesetRef() changeset.Ref {
	return changeset.Ref{UUID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Scope: "site:1"}
}

func TestChangesetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ref := testChangesetRef()

	at := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	cs := changeset.Changeset{
		Status:    changeset.StatusPending,
		PublishAt: &at,
		Values: map[string]any{
			"nav_menu_item[-5]": map[string]any{"title": "Home", "position": 1},
			"nav_menu_item[42]": false,
		},
	}

	saved, err := store.Save(context.Background(), ref, cs, changeset.Meta{Revision: 3})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(saved.ETag) != 64 {
		t.Fatalf("expected blake3 hex etag, got %q", saved.ETag)
	}

	loaded, meta, ok, err := store.Load(context.Background(), ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if meta.ETag != saved.ETag || meta.Revision != 3 {
		t.Fatalf("expected meta %q/3, got %q/%d", saved.ETag, meta.ETag, meta.Revision)
	}
	if loaded.Status != changeset.StatusPending {
		t.Fatalf("expected pending status, got %q", loaded.Status)
	}
	if loaded.PublishAt == nil || !loaded.PublishAt.Equal(at) {
		t.Fatalf("expected publish_at %v, got %v", at, loaded.PublishAt)
	}
	staged, _ := loaded.Values["nav_menu_item[-5]"].(map[string]any)
	if staged["title"] != "Home" {
		t.Fatalf("expected staged title Home, got %#v", staged)
	}
	if marker, ok := loaded.Values["nav_menu_item[42]"].(bool); !ok || marker {
		t.Fatalf("expected delete marker false, got %#v", loaded.Values["nav_menu_item[42]"])
	}
}

func TestChangesetETagTracksValues(t *testing.T) {
	store := openTestStore(t)
	ref := testChangesetRef()
	values := map[string]any{"nav_menu_item[1]": map[string]any{"title": "Home"}}

	first, err := store.Save(context.Background(), ref, changeset.Changeset{Status: changeset.StatusDraft, Values: values}, changeset.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := store.Save(context.Background(), ref, changeset.Changeset{Status: changeset.StatusDraft, Values: values}, changeset.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.ETag != second.ETag {
		t.Fatalf("expected identical values to share an etag, got %q vs %q", first.ETag, second.ETag)
	}

	third, err := store.Save(context.Background(), ref, changeset.Changeset{
		Status: changeset.StatusDraft,
		Values: map[string]any{"nav_menu_item[1]": map[string]any{"title": "Start"}},
	}, changeset.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if third.ETag == first.ETag {
		t.Fatal("expected changed values to change the etag")
	}
}

func TestChangesetDigestVerifiedOnLoad(t *testing.T) {
	store := openTestStore(t)
	ref := testChangesetRef()

	if _, err := store.Save(context.Background(), ref, changeset.Changeset{
		Status: changeset.StatusDraft,
		Values: map[string]any{"nav_menu_item[1]": map[string]any{"title": "Home"}},
	}, changeset.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.DB().Exec(
		"UPDATE changesets SET digest = ? WHERE scope = ? AND uuid = ?",
		strings.Repeat("00", 32), ref.Scope, ref.UUID,
	); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	_, _, _, err := store.Load(context.Background(), ref)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("expected digest mismatch error, got %v", err)
	}
}

func TestChangesetDelete(t *testing.T) {
	store := openTestStore(t)
	ref := testChangesetRef()

	if _, err := store.Save(context.Background(), ref, changeset.Changeset{Status: changeset.StatusDraft}, changeset.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(context.Background(), ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, ok, _ := store.Load(context.Background(), ref); ok {
		t.Fatal("expected deleted changeset to be gone")
	}
	if err := store.Delete(context.Background(), ref); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestListChangesetsFiltersByStatus(t *testing.T) {
	store := openTestStore(t)

	draft := changeset.Ref{UUID: "11111111-1111-4111-8111-111111111111", Scope: "site:1"}
	pending := changeset.Ref{UUID: "22222222-2222-4222-8222-222222222222", Scope: "site:1"}
	elsewhere := changeset.Ref{UUID: "33333333-3333-4333-8333-333333333333", Scope: "site:2"}

	for ref, status := range map[changeset.Ref]string{
		draft:     changeset.StatusDraft,
		pending:   changeset.StatusPending,
		elsewhere: changeset.StatusPending,
	} {
		if _, err := store.Save(context.Background(), ref, changeset.Changeset{Status: status}, changeset.Meta{}); err != nil {
			t.Fatalf("save %s: %v", ref.UUID, err)
		}
	}

	refs, err := store.ListChangesets(context.Background(), "site:1", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 refs for site:1, got %d", len(refs))
	}

	refs, err = store.ListChangesets(context.Background(), "site:1", changeset.StatusPending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(refs) != 1 || refs[0].UUID != pending.UUID {
		t.Fatalf("expected only the pending ref, got %+v", refs)
	}
}

func TestManagerPublishesIntoItemStore(t *testing.T) {
	store := openTestStore(t)
	menu := createTestMenu(t, store, "Primary")
	manager := changeset.Manager{Store: store}
	ref := testChangesetRef()

	if _, _, err := manager.Stage(context.Background(), ref, "nav_menu_item[-5]", map[string]any{
		"title":    "Home",
		"url":      "https://example.com/",
		"menu_id":  menu.ID,
		"position": 1,
	}); err != nil {
		t.Fatalf("stage: %v", err)
	}

	cs, _, err := manager.Publish(context.Background(), ref, changeset.Meta{}, func(ctx context.Context, settingID string, value any) error {
		setting, err := customize.NewItemSetting(settingID, customize.WithStore(store))
		if err != nil {
			return err
		}
		record, err := setting.Sanitize(value)
		if err != nil {
			return err
		}
		if outcome := setting.Commit(ctx, record); outcome.Err != nil {
			return outcome.Err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if cs.Status != changeset.StatusPublished {
		t.Fatalf("expected published status, got %q", cs.Status)
	}

	items, err := store.ListItems(context.Background(), menu.ID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 || items[0].Record.Title != "Home" {
		t.Fatalf("expected the staged item to be persisted, got %+v", items)
	}
	if _, _, ok, _ := store.Load(context.Background(), ref); ok {
		t.Fatal("expected published changeset to be deleted")
	}
}
