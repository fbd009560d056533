package activity

import (
	"context"
	"testing"
)

func TestActorRoundTripsThroughContext(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{ID: " actor-1 ", TenantID: "t-1"})
	actor := ActorFromContext(ctx)
	if actor.ID != "actor-1" || actor.TenantID != "t-1" {
		t.Fatalf("unexpected actor %+v", actor)
	}
	if got := ActorFromContext(context.Background()); got != (Actor{}) {
		t.Fatalf("expected zero actor, got %+v", got)
	}
}
