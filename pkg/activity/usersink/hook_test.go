package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-table-controls/pkg/activity"
	"github.com/goliatone/go-table-controls/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()

	event := activity.BuildFeatureUpdatedEvent(activity.FeatureEventInput{
		ActorID:    actorID.String(),
		UserID:     userID.String(),
		TenantID:   "not-a-uuid",
		Table:      "vulnerabilities",
		Prefix:     "v",
		Feature:    "sort",
		NewValue:   "severity:desc",
		OccurredAt: now,
	})
	event.Channel = "ui"

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != userID {
		t.Fatalf("unexpected ids: %+v", record)
	}
	if record.TenantID != uuid.Nil {
		t.Fatalf("expected invalid tenant to map to uuid.Nil, got %s", record.TenantID)
	}
	if record.Verb != "table.sort.updated" || record.ObjectType != activity.ObjectTypeTableState || record.ObjectID != "v:vulnerabilities" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "ui" || !record.OccurredAt.Equal(now) {
		t.Fatalf("unexpected channel/time: %+v", record)
	}
	if record.Data["feature"] != "sort" || record.Data["new_value"] != "severity:desc" {
		t.Fatalf("expected feature metadata, got %v", record.Data)
	}
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	if err := hook.Notify(context.Background(), activity.Event{Verb: "table.sort.updated"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for incomplete event, got %d", len(sink.records))
	}
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{}); err != nil {
		t.Fatalf("nil sink should be a no-op, got %v", err)
	}
}

func TestHookNotifyPropagatesSinkError(t *testing.T) {
	boom := errors.New("sink down")
	sink := &recordingSink{err: boom}
	err := usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{
		Verb:       "table.filter.updated",
		ObjectType: activity.ObjectTypeTableState,
		ObjectID:   "t",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}
