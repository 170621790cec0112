package worker

import (
	"context"

	"github.com/spec-kit/auth-token-service/internal/service"
)

// StartNotificationWorker registers the approval-event handlers and
// starts draining the notification queue in the background.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	go notificationService.Drain(ctx)
}
