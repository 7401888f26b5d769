package invite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/metrics"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/queue"
	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return "msg-1", nil
}

type fakeQueue struct {
	jobs []*queue.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job *queue.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type inviteRecorder struct {
	metrics.Nop
	delivered []string
	failed    []string
}

func (r *inviteRecorder) RecordInviteDelivered(mode string) { r.delivered = append(r.delivered, mode) }
func (r *inviteRecorder) RecordInviteFailed(reason string)  { r.failed = append(r.failed, reason) }

func validInvite() models.Invite {
	return models.Invite{InviteCode: " abcd1234 ", RecipientEmail: " Friend@Example.com ", SenderName: "Uma"}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	got, err := Validate(validInvite())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got.InviteCode != "ABCD1234" || got.RecipientEmail != "friend@example.com" {
		t.Errorf("normalized invite = %+v", got)
	}

	_, err = Validate(models.Invite{InviteCode: "x", RecipientEmail: "nope"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("error = %v, want ErrInvalidRequest", err)
	}
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || len(validationErr.Fields) != 2 {
		t.Errorf("error = %#v, want two field errors", err)
	}
}

func TestService_SubmitQueues(t *testing.T) {
	t.Parallel()

	mailer, q, rec := &fakeMailer{}, &fakeQueue{}, &inviteRecorder{}
	svc := NewService(mailer, q, "https://fridge.app", rec, nil)

	receipt, err := svc.Submit(context.Background(), "u1", validInvite())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !receipt.Queued || receipt.JobID == "" || receipt.MessageID != "" {
		t.Errorf("receipt = %+v", receipt)
	}
	if len(q.jobs) != 1 {
		t.Fatalf("queued %d jobs, want 1", len(q.jobs))
	}
	job := q.jobs[0]
	if job.Type != queue.JobTypeSendInvite || job.SenderID != "u1" || job.Invite.InviteCode != "ABCD1234" {
		t.Errorf("job = %+v", job)
	}
	if len(mailer.sent) != 0 {
		t.Error("a queued invite must not be sent inline")
	}
}

func TestService_SubmitDeliversWithoutQueue(t *testing.T) {
	t.Parallel()

	mailer, rec := &fakeMailer{}, &inviteRecorder{}
	svc := NewService(mailer, nil, "", rec, nil)

	receipt, err := svc.Submit(context.Background(), "u1", validInvite())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if receipt.Queued || receipt.MessageID != "msg-1" || receipt.RecipientEmail != "friend@example.com" {
		t.Errorf("receipt = %+v", receipt)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To != "friend@example.com" {
		t.Errorf("sent = %+v", mailer.sent)
	}
	if len(rec.delivered) != 1 || rec.delivered[0] != "resend" {
		t.Errorf("delivered = %v", rec.delivered)
	}
}

func TestService_SubmitFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mailer     *fakeMailer
		queue      *fakeQueue
		invite     models.Invite
		wantReason string
	}{
		{name: "invalid", mailer: &fakeMailer{}, invite: models.Invite{}, wantReason: "invalid"},
		{name: "enqueue", mailer: &fakeMailer{}, queue: &fakeQueue{err: errors.New("channel closed")}, invite: validInvite(), wantReason: "enqueue"},
		{name: "send", mailer: &fakeMailer{err: errors.New("422 invalid from")}, invite: validInvite(), wantReason: "send"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &inviteRecorder{}
			var q Enqueuer
			if tt.queue != nil {
				q = tt.queue
			}
			svc := NewService(tt.mailer, q, "", rec, nil)

			if _, err := svc.Submit(context.Background(), "u1", tt.invite); err == nil {
				t.Fatal("Submit() should fail")
			}
			if len(rec.failed) != 1 || rec.failed[0] != tt.wantReason {
				t.Errorf("failures = %v, want [%s]", rec.failed, tt.wantReason)
			}
		})
	}
}

func TestLogMailer(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	mailer := NewLogMailer(zap.New(core))
	svc := NewService(mailer, nil, "", nil, nil)
	if svc.mode != "mock" {
		t.Errorf("mode = %q, want mock", svc.mode)
	}

	id, err := mailer.Send(context.Background(), Message{To: "friend@example.com", Subject: Subject, HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(id) < 5 || id[:5] != "mock-" {
		t.Errorf("id = %q, want mock- prefix", id)
	}

	entries := logs.FilterMessage("mock_invite_email").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["to"] != "f***@example.com" || fields["subject"] != Subject {
		t.Errorf("log fields = %v", fields)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mailer.Send(ctx, Message{}); err == nil {
		t.Error("Send() with a cancelled context should fail")
	}
}

func TestResendMailer(t *testing.T) {
	t.Parallel()

	var got *resend.SendEmailRequest
	mailer := &ResendMailer{
		send: func(req *resend.SendEmailRequest) (string, error) {
			got = req
			return "re_123", nil
		},
		from: formatFrom("invites@fridge.app", "Shared Fridge"),
	}

	id, err := mailer.Send(context.Background(), Message{To: "friend@example.com", Subject: Subject, HTML: "<p>hi</p>", Text: "hi"})
	if err != nil || id != "re_123" {
		t.Fatalf("Send() = %q, %v", id, err)
	}
	if got.From != "Shared Fridge <invites@fridge.app>" || len(got.To) != 1 || got.To[0] != "friend@example.com" {
		t.Errorf("request = %+v", got)
	}
	if got.Html != "<p>hi</p>" || got.Text != "hi" || got.Subject != Subject {
		t.Errorf("request body = %+v", got)
	}

	failing := &ResendMailer{send: func(*resend.SendEmailRequest) (string, error) { return "", errors.New("rate limited") }}
	if _, err := failing.Send(context.Background(), Message{}); err == nil {
		t.Error("Send() should surface provider errors")
	}
}

func TestFormatFrom(t *testing.T) {
	t.Parallel()

	if got := formatFrom("a@b.c", ""); got != "a@b.c" {
		t.Errorf("formatFrom() = %q", got)
	}
	if got := formatFrom("a@b.c", " Fridge "); got != "Fridge <a@b.c>" {
		t.Errorf("formatFrom() = %q", got)
	}
}

func TestNewResendMailer(t *testing.T) {
	t.Parallel()

	mailer := NewResendMailer("re_test", "invites@fridge.app", "")
	if mailer.from != "invites@fridge.app" || mailer.send == nil {
		t.Errorf("mailer = %+v", mailer)
	}
}
