package activity

import (
	"context"
	"strings"
)

// Actor identifies who changed table state. It travels on the context passed
// to feature setters so one table instance can serve many users.
type Actor struct {
	ID       string
	UserID   string
	TenantID string
}

type actorKey struct{}

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	actor.ID = strings.TrimSpace(actor.ID)
	actor.UserID = strings.TrimSpace(actor.UserID)
	actor.TenantID = strings.TrimSpace(actor.TenantID)
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor, or the zero Actor.
func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{}
	}
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}
