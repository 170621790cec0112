package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-token-service/internal/config"
	"github.com/spec-kit/auth-token-service/internal/events"
	"github.com/spec-kit/auth-token-service/internal/persistence"
)

// NotificationJob is what gets queued when an approval-gated account
// attempts to authenticate.
type NotificationJob struct {
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	JobResendVerificationEmail = "resend_verification_email"
	JobRegistrationReminder    = "registration_reminder"
)

// NotificationService reacts to approval events by enqueueing
// notification jobs onto a Redis list. Delivery happens out of band in
// the notification worker.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      *persistence.Redis
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, rdb *persistence.Redis, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      rdb,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to approval events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUnverifiedEmail, n.handleUnverifiedEmail)
	n.dispatcher.Subscribe(events.EventRegistrationUnactivated, n.handleRegistrationUnactivated)
}

func (n *NotificationService) handleUnverifiedEmail(ctx context.Context, event events.Event) error {
	n.logger.Info("UnverifiedEmail", zap.String("user_id", event.UserID), zap.String("email", event.Email))
	return n.enqueue(ctx, NotificationJob{
		Kind:      JobResendVerificationEmail,
		UserID:    event.UserID,
		Email:     event.Email,
		Timestamp: event.Timestamp,
	})
}

func (n *NotificationService) handleRegistrationUnactivated(ctx context.Context, event events.Event) error {
	n.logger.Info("RegistrationUnactivated", zap.String("user_id", event.UserID), zap.String("email", event.Email))
	return n.enqueue(ctx, NotificationJob{
		Kind:      JobRegistrationReminder,
		UserID:    event.UserID,
		Email:     event.Email,
		Timestamp: event.Timestamp,
	})
}

func (n *NotificationService) enqueue(ctx context.Context, job NotificationJob) error {
	if n.redis == nil || n.redis.Client == nil {
		return nil
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := n.redis.Client.RPush(ctx, n.cfg.QueueKey, payload).Err(); err != nil {
		n.logger.Warn("enqueue notification", zap.Error(err))
		return err
	}
	return nil
}

// Drain pops jobs from the queue until the context is cancelled.
func (n *NotificationService) Drain(ctx context.Context) {
	if n.redis == nil || n.redis.Client == nil {
		return
	}
	for {
		res, err := n.redis.Client.BLPop(ctx, 5*time.Second, n.cfg.QueueKey).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			n.logger.Warn("dequeue notification", zap.Error(err))
			continue
		}
		if len(res) < 2 {
			continue
		}

		var job NotificationJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			n.logger.Warn("malformed notification job", zap.Error(err))
			continue
		}
		n.deliver(job)
	}
}

func (n *NotificationService) deliver(job NotificationJob) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	// Delivery is a stub; the job is where a mailer integration hooks in.
	n.logger.Info("deliver notification",
		zap.String("kind", job.Kind),
		zap.String("from", n.cfg.EmailFrom),
		zap.String("email", job.Email))
}
