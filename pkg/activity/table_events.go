package activity

import (
	"fmt"
	"strings"
	"time"
)

// ObjectTypeTableState is the object type of every table-state event.
const ObjectTypeTableState = "table_state"

// FeatureEventInput describes one persisted feature mutation.
type FeatureEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Table      string
	Prefix     string
	Feature    string
	Target     string
	SnapshotID string
	OldValue   any
	NewValue   any
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildFeatureUpdatedEvent constructs a "table.<feature>.updated" event whose
// object id is the namespaced table key.
func BuildFeatureUpdatedEvent(input FeatureEventInput) Event {
	feature := strings.TrimSpace(input.Feature)
	return buildTableEvent(fmt.Sprintf("table.%s.updated", feature), input)
}

// BuildFeatureResetEvent constructs a "table.<feature>.reset" event, emitted
// when persisted state could not be decoded and defaults were restored.
func BuildFeatureResetEvent(input FeatureEventInput) Event {
	feature := strings.TrimSpace(input.Feature)
	return buildTableEvent(fmt.Sprintf("table.%s.reset", feature), input)
}

func buildTableEvent(verb string, input FeatureEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Target != "" {
		metadata = ensureMetadata(metadata)
		metadata["target"] = input.Target
	}
	if input.SnapshotID != "" {
		metadata = ensureMetadata(metadata)
		metadata["snapshot_id"] = input.SnapshotID
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	objectID := strings.TrimSpace(input.Table)
	if prefix := strings.TrimSpace(input.Prefix); prefix != "" {
		objectID = prefix + ":" + objectID
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeTableState,
		ObjectID:   objectID,
		Feature:    strings.TrimSpace(input.Feature),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
