package changeset_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-customize/pkg/changeset"
)

type captureStore struct {
	loadChangeset changeset.Changeset
	loadMeta      changeset.Meta
	loadOK        bool
	loadErr       error

	saveCalls  int
	savedRef   changeset.Ref
	savedMeta  changeset.Meta
	savedValue changeset.Changeset
	saveReturn changeset.Meta
	saveErr    error

	deleteCalls int
	deleteErr   error
}

func (s *captureStore) Load(_ context.Context, _ changeset.Ref) (changeset.Changeset, changeset.Meta, bool, error) {
	if s.loadErr != nil {
		return changeset.Changeset{}, changeset.Meta{}, false, s.loadErr
	}
	return s.loadChangeset, s.loadMeta, s.loadOK, nil
}

func (s *captureStore) Save(_ context.Context, ref changeset.Ref, cs changeset.Changeset, meta changeset.Meta) (changeset.Meta, error) {
	s.saveCalls++
	s.savedRef = ref
	s.savedMeta = meta
	s.savedValue = cs
	if s.saveErr != nil {
		return changeset.Meta{}, s.saveErr
	}
	return s.saveReturn, nil
}

func (s *captureStore) Delete(_ context.Context, _ changeset.Ref) error {
	s.deleteCalls++
	return s.deleteErr
}

func testRef() changeset.Ref {
	return changeset.Ref{UUID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Scope: "site:1"}
}

func TestManagerMutateCreatesDraft(t *testing.T) {
	store := &captureStore{saveReturn: changeset.Meta{Revision: 1, ETag: "v1"}}
	manager := changeset.Manager{Store: store}

	cs, meta, err := manager.Mutate(context.Background(), testRef(), changeset.Meta{}, func(cs *changeset.Changeset) error {
		cs.Values["nav_menu_item[-5]"] = map[string]any{"title": "Home"}
		return nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if cs.Status != changeset.StatusDraft {
		t.Fatalf("expected draft status, got %q", cs.Status)
	}
	if meta.Revision != 1 || meta.ETag != "v1" {
		t.Fatalf("expected saved meta 1/v1, got %d/%q", meta.Revision, meta.ETag)
	}
	if store.saveCalls != 1 {
		t.Fatalf("expected 1 save call, got %d", store.saveCalls)
	}
	if store.savedMeta.Revision != 1 {
		t.Fatalf("expected first revision 1, got %d", store.savedMeta.Revision)
	}
	if _, ok := store.savedValue.Values["nav_menu_item[-5]"]; !ok {
		t.Fatalf("expected staged value in saved changeset, got %#v", store.savedValue.Values)
	}
}

func TestManagerMutateBumpsRevision(t *testing.T) {
	store := &captureStore{
		loadChangeset: changeset.Changeset{Status: changeset.StatusDraft, Values: map[string]any{}},
		loadMeta:      changeset.Meta{Revision: 4, ETag: "v4"},
		loadOK:        true,
		saveReturn:    changeset.Meta{Revision: 5, ETag: "v5"},
	}
	manager := changeset.Manager{Store: store}

	_, _, err := manager.Mutate(context.Background(), testRef(), changeset.Meta{ETag: "v4"}, func(cs *changeset.Changeset) error {
		cs.Status = changeset.StatusPending
		return nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if store.savedMeta.Revision != 5 {
		t.Fatalf("expected revision 5, got %d", store.savedMeta.Revision)
	}
	if store.savedValue.Status != changeset.StatusPending {
		t.Fatalf("expected pending status, got %q", store.savedValue.Status)
	}
}

func TestManagerMutateETagMismatch(t *testing.T) {
	store := &captureStore{
		loadChangeset: changeset.Changeset{Status: changeset.StatusDraft},
		loadMeta:      changeset.Meta{Revision: 2, ETag: "v2"},
		loadOK:        true,
	}
	manager := changeset.Manager{Store: store}

	_, _, err := manager.Mutate(context.Background(), testRef(), changeset.Meta{ETag: "v1"}, func(cs *changeset.Changeset) error {
		return nil
	})
	if !errors.Is(err, changeset.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Fatalf("expected no save calls, got %d", store.saveCalls)
	}
}

func TestManagerMutateValidationFailureDoesNotSave(t *testing.T) {
	store := &captureStore{}
	manager := changeset.Manager{Store: store}

	_, _, err := manager.Mutate(context.Background(), testRef(), changeset.Meta{}, func(cs *changeset.Changeset) error {
		cs.Status = "trashed"
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), `unknown status "trashed"`) {
		t.Fatalf("expected status validation error, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Fatalf("expected no save calls, got %d", store.saveCalls)
	}
}

func TestManagerMutateScheduleRequiresPending(t *testing.T) {
	manager := changeset.Manager{Store: changeset.NewMemoryStore()}

	at := time.Now().Add(time.Hour)
	_, _, err := manager.Mutate(context.Background(), testRef(), changeset.Meta{}, func(cs *changeset.Changeset) error {
		cs.PublishAt = &at
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "publish schedule requires status") {
		t.Fatalf("expected schedule coherence error, got %v", err)
	}
}

func TestManagerMutateRejectsInvalidRef(t *testing.T) {
	manager := changeset.Manager{Store: changeset.NewMemoryStore()}

	_, _, err := manager.Mutate(context.Background(), changeset.Ref{UUID: "nope", Scope: "site:1"}, changeset.Meta{}, func(cs *changeset.Changeset) error {
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "invalid uuid") {
		t.Fatalf("expected identifier error, got %v", err)
	}
}

func TestManagerStageClonesValue(t *testing.T) {
	store := changeset.NewMemoryStore()
	manager := changeset.Manager{Store: store}
	ref := testRef()

	payload := map[string]any{"title": "Home", "position": 1}
	if _, _, err := manager.Stage(context.Background(), ref, "nav_menu_item[-5]", payload); err != nil {
		t.Fatalf("stage: %v", err)
	}
	payload["title"] = "Mutated"

	cs, _, ok, err := store.Load(context.Background(), ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	staged, _ := cs.Values["nav_menu_item[-5]"].(map[string]any)
	if staged["title"] != "Home" {
		t.Fatalf("expected staged copy to keep Home, got %#v", staged["title"])
	}
}

func TestManagerStageRequiresSettingID(t *testing.T) {
	manager := changeset.Manager{Store: changeset.NewMemoryStore()}

	_, _, err := manager.Stage(context.Background(), testRef(), "", map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "setting identifier is required") {
		t.Fatalf("expected setting identifier error, got %v", err)
	}
}

func TestManagerDiscardRemovesValue(t *testing.T) {
	store := changeset.NewMemoryStore()
	manager := changeset.Manager{Store: store}
	ref := testRef()

	if _, _, err := manager.Stage(context.Background(), ref, "nav_menu_item[1]", map[string]any{"title": "Home"}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if _, _, err := manager.Stage(context.Background(), ref, "nav_menu_item[2]", map[string]any{"title": "Blog"}); err != nil {
		t.Fatalf("stage: %v", err)
	}

	cs, _, err := manager.Discard(context.Background(), ref, "nav_menu_item[1]")
	if err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, ok := cs.Values["nav_menu_item[1]"]; ok {
		t.Fatal("expected nav_menu_item[1] to be discarded")
	}
	if _, ok := cs.Values["nav_menu_item[2]"]; !ok {
		t.Fatal("expected nav_menu_item[2] to survive")
	}
}

func TestManagerPublishAppliesInSortedOrder(t *testing.T) {
	store := changeset.NewMemoryStore()
	manager := changeset.Manager{Store: store}
	ref := testRef()

	for id, title := range map[string]string{
		"nav_menu_item[9]":  "Contact",
		"nav_menu_item[-5]": "Home",
		"nav_menu_item[42]": "Blog",
	} {
		if _, _, err := manager.Stage(context.Background(), ref, id, map[string]any{"title": title}); err != nil {
			t.Fatalf("stage %s: %v", id, err)
		}
	}

	var applied []string
	cs, _, err := manager.Publish(context.Background(), ref, changeset.Meta{}, func(_ context.Context, id string, _ any) error {
		applied = append(applied, id)
		return nil
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if cs.Status != changeset.StatusPublished {
		t.Fatalf("expected published status, got %q", cs.Status)
	}

	want := []string{"nav_menu_item[-5]", "nav_menu_item[42]", "nav_menu_item[9]"}
	if len(applied) != len(want) {
		t.Fatalf("expected %d applied values, got %d", len(want), len(applied))
	}
	for i, id := range want {
		if applied[i] != id {
			t.Fatalf("expected apply order %v, got %v", want, applied)
		}
	}

	if _, _, ok, _ := store.Load(context.Background(), ref); ok {
		t.Fatal("expected changeset to be deleted after publish")
	}
}

func TestManagerPublishMissingChangeset(t *testing.T) {
	manager := changeset.Manager{Store: changeset.NewMemoryStore()}

	_, _, err := manager.Publish(context.Background(), testRef(), changeset.Meta{}, func(_ context.Context, _ string, _ any) error {
		return nil
	})
	if !errors.Is(err, changeset.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestManagerPublishRefusesFutureSchedule(t *testing.T) {
	store := changeset.NewMemoryStore()
	manager := changeset.Manager{Store: store}
	ref := testRef()

	at := time.Now().Add(time.Hour)
	_, _, err := manager.Mutate(context.Background(), ref, changeset.Meta{}, func(cs *changeset.Changeset) error {
		cs.Status = changeset.StatusPending
		cs.PublishAt = &at
		cs.Values = map[string]any{"nav_menu_item[1]": false}
		return nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	_, _, err = manager.Publish(context.Background(), ref, changeset.Meta{}, func(_ context.Context, _ string, _ any) error {
		t.Fatal("apply must not run for a future schedule")
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "publish scheduled for") {
		t.Fatalf("expected schedule error, got %v", err)
	}
	if _, _, ok, _ := store.Load(context.Background(), ref); !ok {
		t.Fatal("expected scheduled changeset to stay stored")
	}
}

func TestManagerPublishApplyFailureKeepsChangeset(t *testing.T) {
	store := changeset.NewMemoryStore()
	manager := changeset.Manager{Store: store}
	ref := testRef()

	if _, _, err := manager.Stage(context.Background(), ref, "nav_menu_item[1]", map[string]any{"title": "Home"}); err != nil {
		t.Fatalf("stage: %v", err)
	}

	boom := errors.New("store offline")
	_, _, err := manager.Publish(context.Background(), ref, changeset.Meta{}, func(_ context.Context, _ string, _ any) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected apply failure, got %v", err)
	}
	if _, _, ok, _ := store.Load(context.Background(), ref); !ok {
		t.Fatal("expected changeset to survive a failed publish")
	}
}

func TestManagerPublishETagMismatch(t *testing.T) {
	store := changeset.NewMemoryStore()
	manager := changeset.Manager{Store: store}
	ref := testRef()

	if _, _, err := manager.Stage(context.Background(), ref, "nav_menu_item[1]", map[string]any{"title": "Home"}); err != nil {
		t.Fatalf("stage: %v", err)
	}

	_, _, err := manager.Publish(context.Background(), ref, changeset.Meta{ETag: "stale"}, func(_ context.Context, _ string, _ any) error {
		t.Fatal("apply must not run on etag mismatch")
		return nil
	})
	if !errors.Is(err, changeset.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
}
