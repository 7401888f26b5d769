package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/logger"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/queue"
	"go.uber.org/zap"
)

// Deliverer sends one invite e-mail
type Deliverer interface {
	Deliver(ctx context.Context, inv models.Invite) (string, error)
}

// Enqueuer puts a job back on the queue
type Enqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// InviteSender processes send_invite jobs
type InviteSender struct {
	deliverer Deliverer
	jobQueue  Enqueuer
	retryBase time.Duration
	logger    *zap.Logger
}

// NewInviteSender creates a worker. Failed jobs are re-enqueued with a backoff
// starting at retryBase; zero retries immediately.
func NewInviteSender(deliverer Deliverer, jobQueue Enqueuer, retryBase time.Duration, log *zap.Logger) *InviteSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &InviteSender{
		deliverer: deliverer,
		jobQueue:  jobQueue,
		retryBase: retryBase,
		logger:    log,
	}
}

var errMalformedJob = errors.New("malformed invite job")

// ProcessJob delivers the invite in msg and settles the message.
// Expired jobs are dropped, failed jobs are retried until MaxRetries and then dead-lettered.
func (s *InviteSender) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	if job == nil || job.Type != queue.JobTypeSendInvite || job.Invite == nil {
		if err := msg.Nack(false); err != nil {
			s.logger.Warn("job_nack_failed", zap.Error(err))
		}
		return errMalformedJob
	}

	log := s.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
	)

	if job.IsExpired() {
		log.Info("invite_job_expired")
		return msg.Ack()
	}

	id, err := s.deliverer.Deliver(ctx, *job.Invite)
	if err == nil {
		log.Debug("invite_job_done", zap.String("message_id", id))
		return msg.Ack()
	}

	if !job.CanRetry() {
		log.Error("invite_job_dead_lettered",
			zap.String("recipient", logger.MaskEmail(job.Invite.RecipientEmail)),
			zap.String("error", logger.SanitizeError(err)),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("invite delivery failed after %d retries: %w", job.RetryCount, err)
	}

	retry := *job
	retry.IncrementRetry(s.retryBase)
	if enqueueErr := s.jobQueue.Enqueue(ctx, &retry); enqueueErr != nil {
		// Keep the original message so the job is not lost
		log.Warn("invite_job_requeue_failed", zap.Error(enqueueErr))
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("invite delivery failed: %w", err)
	}

	log.Info("invite_job_retry_scheduled", zap.Int("next_retry", retry.RetryCount))
	if ackErr := msg.Ack(); ackErr != nil {
		log.Warn("job_ack_failed", zap.Error(ackErr))
	}
	return fmt.Errorf("invite delivery failed: %w", err)
}

// Run consumes messages until ctx is cancelled or the message channel closes
func (s *InviteSender) Run(ctx context.Context, messages <-chan *queue.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				s.logger.Info("message_channel_closed")
				return
			}
			if err := s.ProcessJob(ctx, msg); err != nil {
				s.logger.Warn("job_failed", zap.String("error", logger.SanitizeError(err)))
			}
		}
	}
}
