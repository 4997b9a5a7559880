package activity

import (
	"strconv"
	"strings"
	"time"
)

// SettingEventInput describes the common fields for setting lifecycle events.
type SettingEventInput struct {
	ActorID       string
	UserID        string
	TenantID      string
	SettingID     string
	TransactionID string
	Channel       string
	Scope         string
	Key           int64
	PreviousKey   *int64
	Code          string
	Metadata      map[string]any
	OccurredAt    time.Time
}

// BuildSettingInsertedEvent constructs a normalized activity event for a
// commit that created a new record.
func BuildSettingInsertedEvent(input SettingEventInput) Event {
	return buildSettingEvent("setting.inserted", "menu_item", input)
}

// BuildSettingUpdatedEvent constructs a normalized activity event for a
// commit that updated an existing record.
func BuildSettingUpdatedEvent(input SettingEventInput) Event {
	return buildSettingEvent("setting.updated", "menu_item", input)
}

// BuildSettingDeletedEvent constructs a normalized activity event for a
// commit that removed a record.
func BuildSettingDeletedEvent(input SettingEventInput) Event {
	return buildSettingEvent("setting.deleted", "menu_item", input)
}

// BuildSettingCommitFailedEvent constructs a normalized activity event for a
// commit that could not be applied.
func BuildSettingCommitFailedEvent(input SettingEventInput) Event {
	return buildSettingEvent("setting.commit_failed", "menu_item", input)
}

func buildSettingEvent(verb, objectType string, input SettingEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Key != 0 {
		metadata = ensureMetadata(metadata)
		metadata["key"] = input.Key
	}
	if input.PreviousKey != nil {
		metadata = ensureMetadata(metadata)
		metadata["previous_key"] = *input.PreviousKey
	}
	if input.Code != "" {
		metadata = ensureMetadata(metadata)
		metadata["error_code"] = input.Code
	}
	if input.Scope != "" {
		metadata = ensureMetadata(metadata)
		metadata["scope"] = input.Scope
	}

	objectID := strings.TrimSpace(input.SettingID)
	if objectID == "" && input.Key != 0 {
		objectID = strconv.FormatInt(input.Key, 10)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:          verb,
		ActorID:       strings.TrimSpace(input.ActorID),
		UserID:        strings.TrimSpace(input.UserID),
		TenantID:      strings.TrimSpace(input.TenantID),
		ObjectType:    objectType,
		ObjectID:      objectID,
		Channel:       strings.TrimSpace(input.Channel),
		TransactionID: strings.TrimSpace(input.TransactionID),
		Metadata:      metadata,
		OccurredAt:    input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
