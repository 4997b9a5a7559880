package activity

import (
	"testing"
	"time"
)

func TestBuildSettingInsertedEventFoldsCommitFacts(t *testing.T) {
	previous := int64(-5)
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	event := BuildSettingInsertedEvent(SettingEventInput{
		ActorID:       "actor",
		SettingID:     "nav_menu_item[-5]",
		TransactionID: "txn-1",
		Scope:         "changeset-a",
		Key:           42,
		PreviousKey:   &previous,
		Metadata:      map[string]any{"menu_id": int64(7)},
		OccurredAt:    now,
	})

	if event.Verb != "setting.inserted" {
		t.Fatalf("expected verb setting.inserted, got %q", event.Verb)
	}
	if event.ObjectType != "menu_item" {
		t.Fatalf("expected object type menu_item, got %q", event.ObjectType)
	}
	if event.ObjectID != "nav_menu_item[-5]" {
		t.Fatalf("expected object id from setting, got %q", event.ObjectID)
	}
	if event.TransactionID != "txn-1" {
		t.Fatalf("expected transaction id, got %q", event.TransactionID)
	}
	if event.OccurredAt != now {
		t.Fatalf("expected occurred_at preserved, got %v", event.OccurredAt)
	}
	if event.Metadata["key"] != int64(42) {
		t.Fatalf("expected key metadata, got %v", event.Metadata["key"])
	}
	if event.Metadata["previous_key"] != int64(-5) {
		t.Fatalf("expected previous_key metadata, got %v", event.Metadata["previous_key"])
	}
	if event.Metadata["scope"] != "changeset-a" {
		t.Fatalf("expected scope metadata, got %v", event.Metadata["scope"])
	}
	if event.Metadata["menu_id"] != int64(7) {
		t.Fatalf("expected caller metadata preserved, got %v", event.Metadata["menu_id"])
	}
}

func TestBuildSettingCommitFailedEventIncludesCode(t *testing.T) {
	event := BuildSettingCommitFailedEvent(SettingEventInput{
		SettingID: "nav_menu_item[42]",
		Key:       42,
		Code:      "delete_failure",
	})

	if event.Verb != "setting.commit_failed" {
		t.Fatalf("expected verb setting.commit_failed, got %q", event.Verb)
	}
	if event.Metadata["error_code"] != "delete_failure" {
		t.Fatalf("expected error_code metadata, got %v", event.Metadata["error_code"])
	}
}

func TestBuildSettingDeletedEventObjectIDFallsBackToKey(t *testing.T) {
	event := BuildSettingDeletedEvent(SettingEventInput{Key: 42})

	if event.ObjectID != "42" {
		t.Fatalf("expected object id from key, got %q", event.ObjectID)
	}

	empty := BuildSettingUpdatedEvent(SettingEventInput{})
	if empty.ObjectID != "menu_item" {
		t.Fatalf("expected object id fallback to object type, got %q", empty.ObjectID)
	}
}

func TestBuildSettingEventDoesNotMutateCallerMetadata(t *testing.T) {
	meta := map[string]any{"k": "v"}
	event := BuildSettingUpdatedEvent(SettingEventInput{
		SettingID: "nav_menu_item[7]",
		Key:       7,
		Metadata:  meta,
	})

	event.Metadata["k"] = "changed"
	if meta["k"] != "v" {
		t.Fatalf("expected caller metadata untouched: %+v", meta)
	}
	if _, ok := meta["key"]; ok {
		t.Fatalf("expected fold keys to stay out of caller metadata: %+v", meta)
	}
}
