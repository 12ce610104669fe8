package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/taskdist/distribution-service/internal/cache"
	"github.com/taskdist/distribution-service/internal/config"
	"github.com/taskdist/distribution-service/internal/events"
)

// NotificationService reacts to workspace events: it logs them, drops the
// workspace's cached analytics and forwards them to the webhook stub.
type NotificationService struct {
	dispatcher events.Dispatcher
	cache      *cache.AnalyticsCache
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, analyticsCache *cache.AnalyticsCache, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		cache:      analyticsCache,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTasksDistributed, n.handleTasksDistributed)
	n.dispatcher.Subscribe(events.EventTaskStatusChanged, n.handleTaskStatusChanged)
	n.dispatcher.Subscribe(events.EventTasksDeleted, n.handleWorkspaceChanged)
	n.dispatcher.Subscribe(events.EventAgentCreated, n.handleWorkspaceChanged)
	n.dispatcher.Subscribe(events.EventAgentUpdated, n.handleWorkspaceChanged)
	n.dispatcher.Subscribe(events.EventAgentDeleted, n.handleWorkspaceChanged)
}

func (n *NotificationService) handleTasksDistributed(ctx context.Context, event events.Event) error {
	n.logger.Info("TasksDistributed", zap.String("admin_id", event.AdminID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return n.cache.Invalidate(ctx, event.AdminID)
}

func (n *NotificationService) handleTaskStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TaskStatusChanged",
		zap.String("admin_id", event.AdminID),
		zap.String("agent_id", event.Actor.ID),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return n.cache.Invalidate(ctx, event.AdminID)
}

func (n *NotificationService) handleWorkspaceChanged(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("admin_id", event.AdminID), zap.Any("payload", event.Payload))
	return n.cache.Invalidate(ctx, event.AdminID)
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}
