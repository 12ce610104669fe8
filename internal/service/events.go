package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskdist/distribution-service/internal/domain"
	"github.com/taskdist/distribution-service/internal/events"
	"github.com/taskdist/distribution-service/internal/workspace"
)

type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, scope workspace.Scope, eventType events.EventType, payload any) {
	if p.dispatcher == nil {
		return
	}
	actor := events.Actor{Role: domain.RoleAdmin, ID: scope.AdminID}
	if scope.IsAgent() {
		actor = events.Actor{Role: domain.RoleAgent, ID: scope.AgentID}
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AdminID:   scope.AdminID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil && p.logger != nil {
		p.logger.Warn("publish event", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
