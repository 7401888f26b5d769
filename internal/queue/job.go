package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeSendInvite delivers one fridge invite e-mail
	JobTypeSendInvite JobType = "send_invite"
)

const (
	defaultMaxRetries = 3
	// An invite that could not be sent within a day is dropped; the sender can invite again.
	defaultInviteTTL = 24 * time.Hour
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	SenderID   string         `json:"sender_id"`
	Invite     *models.Invite `json:"invite,omitempty"`
	NotBefore  *time.Time     `json:"not_before,omitempty"` // nil = immediate
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // nil = never expires
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewInviteJob creates a send_invite job on behalf of senderID
func NewInviteJob(senderID string, invite models.Invite) *Job {
	now := time.Now()
	notAfter := now.Add(defaultInviteTTL)
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeSendInvite,
		SenderID:   senderID,
		Invite:     &invite,
		NotAfter:   &notAfter,
		CreatedAt:  now,
		MaxRetries: defaultMaxRetries,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	return j.NotAfter == nil || !now.After(*j.NotAfter)
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	return j.NotAfter != nil && time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count and delays the next attempt.
// The delay doubles with each retry starting at base.
func (j *Job) IncrementRetry(base time.Duration) {
	j.RetryCount++
	if base <= 0 {
		j.NotBefore = nil
		return
	}
	delay := base << (j.RetryCount - 1)
	next := time.Now().Add(delay)
	j.NotBefore = &next
}
