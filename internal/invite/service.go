// Package invite e-mails fridge invite codes, either directly or through the job queue.
package invite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/logger"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/metrics"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/queue"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/validation"
	"go.uber.org/zap"
)

// ErrInvalidRequest wraps every validation failure
var ErrInvalidRequest = errors.New("invalid invite request")

// ValidationError lists the fields that failed validation
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "invalid invite request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// Validate normalizes the invite and checks it
func Validate(inv models.Invite) (models.Invite, error) {
	inv.InviteCode = strings.ToUpper(strings.TrimSpace(inv.InviteCode))
	inv.RecipientEmail = strings.ToLower(strings.TrimSpace(inv.RecipientEmail))
	inv.SenderName = strings.TrimSpace(inv.SenderName)
	inv.FridgeName = strings.TrimSpace(inv.FridgeName)

	fields, err := validation.Struct(inv)
	if err != nil {
		return inv, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(fields) > 0 {
		return inv, &ValidationError{Fields: fields}
	}
	return inv, nil
}

// Enqueuer accepts jobs for the worker
type Enqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// Receipt describes what Submit did
type Receipt struct {
	InviteCode     string
	RecipientEmail string
	Queued         bool
	JobID          string
	MessageID      string
}

// Service validates, queues and delivers invites
type Service struct {
	mailer   Mailer
	queue    Enqueuer
	appURL   string
	mode     string
	recorder metrics.Recorder
	logger   *zap.Logger
}

// NewService creates an invite service. A nil queue makes Submit deliver immediately.
func NewService(mailer Mailer, q Enqueuer, appURL string, recorder metrics.Recorder, log *zap.Logger) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	mode := "resend"
	if _, ok := mailer.(*LogMailer); ok {
		mode = "mock"
	}
	return &Service{
		mailer:   mailer,
		queue:    q,
		appURL:   appURL,
		mode:     mode,
		recorder: recorder,
		logger:   log,
	}
}

// Submit validates inv and hands it to the queue, or sends it right away when there is no queue
func (s *Service) Submit(ctx context.Context, senderID string, inv models.Invite) (Receipt, error) {
	inv, err := Validate(inv)
	if err != nil {
		s.recorder.RecordInviteFailed("invalid")
		return Receipt{}, err
	}

	receipt := Receipt{InviteCode: inv.InviteCode, RecipientEmail: inv.RecipientEmail}

	if s.queue != nil {
		job := queue.NewInviteJob(senderID, inv)
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.recorder.RecordInviteFailed("enqueue")
			return Receipt{}, fmt.Errorf("failed to queue invite: %w", err)
		}
		s.logger.Info("invite_queued",
			zap.String("job_id", job.ID.String()),
			zap.String("sender_id", senderID),
			zap.String("recipient", logger.MaskEmail(inv.RecipientEmail)),
		)
		receipt.Queued = true
		receipt.JobID = job.ID.String()
		return receipt, nil
	}

	id, err := s.Deliver(ctx, inv)
	if err != nil {
		return Receipt{}, err
	}
	receipt.MessageID = id
	return receipt, nil
}

// Deliver renders and sends inv
func (s *Service) Deliver(ctx context.Context, inv models.Invite) (string, error) {
	msg, err := Render(inv, s.appURL)
	if err != nil {
		s.recorder.RecordInviteFailed("render")
		return "", err
	}

	id, err := s.mailer.Send(ctx, msg)
	if err != nil {
		s.recorder.RecordInviteFailed("send")
		s.logger.Warn("invite_send_failed",
			zap.String("recipient", logger.MaskEmail(inv.RecipientEmail)),
			zap.String("error", logger.SanitizeError(err)),
		)
		return "", err
	}

	s.recorder.RecordInviteDelivered(s.mode)
	s.logger.Info("invite_delivered",
		zap.String("message_id", id),
		zap.String("mode", s.mode),
		zap.String("recipient", logger.MaskEmail(inv.RecipientEmail)),
	)
	return id, nil
}
