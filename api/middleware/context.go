package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/rifazone/rifazone-backend/pkg/outbox"
)

type contextKey string

const (
	ctxSubjectID contextKey = "subject_id"
	ctxRole      contextKey = "actor_role"
	ctxPartnerID contextKey = "partner_id"
)

func SubjectIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSubjectID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func PartnerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxPartnerID).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext rebuilds the event actor reference from the request
// context seeded by Auth.
func ActorFromContext(ctx context.Context) outbox.ActorRef {
	actor := outbox.ActorRef{Role: RoleFromContext(ctx)}
	if id, err := uuid.Parse(SubjectIDFromContext(ctx)); err == nil {
		actor.SubjectID = id
	}
	if raw := PartnerIDFromContext(ctx); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			actor.PartnerID = &id
		}
	}
	return actor
}
