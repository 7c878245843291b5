package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/intake-chat/internal/common"
	"github.com/suPer8Hu/intake-chat/internal/escalation"
)

func (h *Handler) SendTranscript(c *gin.Context) {
	var req escalation.TranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "Invalid request", nil)
		return
	}

	ticket, err := h.TranscriptSvc.SendTranscript(c.Request.Context(), req)
	switch {
	case err == nil:
		common.OK(c, gin.H{"ticket_id": ticket})
	case errors.Is(err, common.ErrInvalidInput):
		common.Fail(c, http.StatusBadRequest, "Invalid request", nil)
	case errors.Is(err, common.ErrAlreadySent):
		common.Fail(c, http.StatusTooManyRequests, "Already sent", gin.H{"message": "Transcript already sent for this session"})
	case errors.Is(err, common.ErrDeliveryFailed):
		slog.Error("transcript delivery failed", "session_id", req.SessionID, "err", err)
		common.Fail(c, http.StatusBadGateway, "Email failed", nil)
	default:
		slog.Error("send transcript failed", "session_id", req.SessionID, "err", err)
		common.Fail(c, http.StatusInternalServerError, "Internal error", nil)
	}
}
