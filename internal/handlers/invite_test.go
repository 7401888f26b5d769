package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/invite"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/queue"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/request"
	"go.uber.org/zap"
)

type inviteBody struct {
	Success bool                `json:"success"`
	Data    InviteResponse      `json:"data"`
	Error   string              `json:"error"`
	Details []map[string]string `json:"details"`
}

type recordingQueue struct {
	jobs []*queue.Job
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, job *queue.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func postInvite(t *testing.T, h *InviteHandler, body string, claims *models.JWTClaims) (*httptest.ResponseRecorder, inviteBody) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invites", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if claims != nil {
		req = req.WithContext(request.WithClaims(req.Context(), claims))
	}
	w := httptest.NewRecorder()
	h.SendInvite(w, req)

	var decoded inviteBody
	if err := json.NewDecoder(w.Body).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return w, decoded
}

func TestSendInvite_DeliversImmediatelyWithoutQueue(t *testing.T) {
	t.Parallel()

	svc := invite.NewService(invite.NewLogMailer(zap.NewNop()), nil, "https://fridge.example.com", nil, zap.NewNop())
	h := NewInviteHandler(svc, zap.NewNop())

	w, body := postInvite(t, h, `{"inviteCode":"ab12cd","recipientEmail":" Mate@Example.com ","senderName":"Nicky","fridgeName":"Flat 4"}`, nil)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if !body.Success {
		t.Error("Expected success to be true")
	}
	if body.Data.InviteCode != "AB12CD" {
		t.Errorf("Expected normalized invite code 'AB12CD', got %q", body.Data.InviteCode)
	}
	if body.Data.RecipientEmail != "mate@example.com" {
		t.Errorf("Expected normalized e-mail, got %q", body.Data.RecipientEmail)
	}
	if body.Data.Queued {
		t.Error("Expected queued to be false without a queue")
	}
	if !strings.HasPrefix(body.Data.MessageID, "mock-") {
		t.Errorf("Expected mock message id, got %q", body.Data.MessageID)
	}
}

func TestSendInvite_QueuesWithSender(t *testing.T) {
	t.Parallel()

	q := &recordingQueue{}
	svc := invite.NewService(invite.NewLogMailer(zap.NewNop()), q, "https://fridge.example.com", nil, zap.NewNop())
	h := NewInviteHandler(svc, zap.NewNop())

	w, body := postInvite(t, h, `{"inviteCode":"ABCD","recipientEmail":"mate@example.com"}`, &models.JWTClaims{Sub: "user-1"})

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if !body.Data.Queued || body.Data.JobID == "" {
		t.Errorf("Expected queued response with job id, got %+v", body.Data)
	}
	if len(q.jobs) != 1 {
		t.Fatalf("Expected one job, got %d", len(q.jobs))
	}
	if q.jobs[0].SenderID != "user-1" {
		t.Errorf("Expected sender 'user-1', got %q", q.jobs[0].SenderID)
	}
}

func TestSendInvite_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		queueErr   error
		wantStatus int
		wantField  string
	}{
		{name: "malformed json", body: `{"inviteCode":`, wantStatus: http.StatusBadRequest},
		{name: "missing e-mail", body: `{"inviteCode":"ABCD"}`, wantStatus: http.StatusBadRequest, wantField: "recipientEmail"},
		{name: "bad code", body: `{"inviteCode":"AB-CD","recipientEmail":"mate@example.com"}`, wantStatus: http.StatusBadRequest, wantField: "inviteCode"},
		{name: "queue down", body: `{"inviteCode":"ABCD","recipientEmail":"mate@example.com"}`, queueErr: errors.New("connection closed"), wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := &recordingQueue{err: tt.queueErr}
			svc := invite.NewService(invite.NewLogMailer(zap.NewNop()), q, "https://fridge.example.com", nil, zap.NewNop())
			h := NewInviteHandler(svc, zap.NewNop())

			w, body := postInvite(t, h, tt.body, nil)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if body.Success {
				t.Error("Expected success to be false")
			}
			if tt.wantField == "" {
				return
			}
			found := false
			for _, d := range body.Details {
				if d["field"] == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected a detail for field %q, got %v", tt.wantField, body.Details)
			}
		})
	}
}
