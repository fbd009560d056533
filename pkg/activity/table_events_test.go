package activity

import "testing"

func TestBuildFeatureUpdatedEvent(t *testing.T) {
	event := BuildFeatureUpdatedEvent(FeatureEventInput{
		Table:      "vulnerabilities",
		Prefix:     "v",
		Feature:    "filter",
		Target:     "urlParams",
		SnapshotID: "snap-1",
		OldValue:   map[string][]string{},
		NewValue:   map[string][]string{"severity": {"high"}},
	})

	if event.Verb != "table.filter.updated" {
		t.Fatalf("unexpected verb %q", event.Verb)
	}
	if event.ObjectType != ObjectTypeTableState || event.ObjectID != "v:vulnerabilities" {
		t.Fatalf("unexpected object %q/%q", event.ObjectType, event.ObjectID)
	}
	if event.Feature != "filter" {
		t.Fatalf("unexpected feature %q", event.Feature)
	}
	for _, key := range []string{"target", "snapshot_id", "old_value", "new_value"} {
		if _, ok := event.Metadata[key]; !ok {
			t.Fatalf("expected metadata key %q in %+v", key, event.Metadata)
		}
	}
}

func TestBuildFeatureResetEventWithoutPrefix(t *testing.T) {
	event := BuildFeatureResetEvent(FeatureEventInput{Table: "sboms", Feature: "pagination"})
	if event.Verb != "table.pagination.reset" || event.ObjectID != "sboms" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Metadata != nil {
		t.Fatalf("expected no metadata, got %+v", event.Metadata)
	}
}
