package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/invite"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/logger"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/request"
	"go.uber.org/zap"
)

// anonymousSender is recorded on jobs when the server runs without token verification
const anonymousSender = "anonymous"

// InviteSubmitter validates and dispatches an invite
type InviteSubmitter interface {
	Submit(ctx context.Context, senderID string, inv models.Invite) (invite.Receipt, error)
}

// InviteHandler serves POST /api/v1/invites
type InviteHandler struct {
	submitter InviteSubmitter
	logger    *zap.Logger
}

// NewInviteHandler creates an invite handler
func NewInviteHandler(submitter InviteSubmitter, log *zap.Logger) *InviteHandler {
	return &InviteHandler{submitter: submitter, logger: log}
}

// InviteResponse is the data member of a successful invite response
type InviteResponse struct {
	InviteCode     string `json:"invite_code"`
	RecipientEmail string `json:"recipient_email"`
	Queued         bool   `json:"queued"`
	JobID          string `json:"job_id,omitempty"`
	MessageID      string `json:"message_id"`
}

// SendInvite accepts an invite and answers 202 once it is queued or sent
func (h *InviteHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	var inv models.Invite
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body is too large")
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Request body must be a JSON object")
		return
	}

	senderID := anonymousSender
	if claims := request.ClaimsFromContext(r); claims != nil && claims.Sub != "" {
		senderID = claims.Sub
	}

	receipt, err := h.submitter.Submit(r.Context(), senderID, inv)
	if err != nil {
		var verr *invite.ValidationError
		switch {
		case errors.As(err, &verr):
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invite request is invalid", verr.Fields...)
		case errors.Is(err, invite.ErrInvalidRequest):
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invite request is invalid")
		default:
			h.logger.Error("invite_submit_failed",
				zap.String("error", logger.SanitizeError(err)),
				zap.String("request_id", request.RequestID(r)),
			)
			respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to send invite email")
		}
		return
	}

	respondJSON(w, http.StatusAccepted, InviteResponse{
		InviteCode:     receipt.InviteCode,
		RecipientEmail: receipt.RecipientEmail,
		Queued:         receipt.Queued,
		JobID:          receipt.JobID,
		MessageID:      receipt.MessageID,
	})
}
