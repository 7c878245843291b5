package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/intake-chat/internal/chat"
	"github.com/suPer8Hu/intake-chat/internal/common"
	"github.com/suPer8Hu/intake-chat/internal/httpapi/middleware"
)

const internalErrorReply = "Sorry, something went wrong. Please try again or contact us at contact@thelimbostudio.com"

func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func (h *Handler) Chat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "Invalid request", nil)
		return
	}

	reply, err := h.ChatSvc.Turn(c.Request.Context(), clientIP(c), req)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrMessageTooLong):
		common.Fail(c, http.StatusBadRequest, "Message too long", nil)
		return
	case errors.Is(err, common.ErrInvalidInput):
		common.Fail(c, http.StatusBadRequest, "Invalid request", nil)
		return
	case errors.Is(err, common.ErrRateLimited):
		common.Fail(c, http.StatusTooManyRequests, "RATE_LIMIT", gin.H{"reply_markdown": middleware.RateLimitReply})
		return
	default:
		common.Fail(c, http.StatusInternalServerError, "Internal error", gin.H{"reply_markdown": internalErrorReply})
		return
	}

	common.OK(c, gin.H{
		"reply_markdown": reply.Markdown,
		"plan":           reply.Plan,
		"is_final":       reply.IsFinal,
		"step":           reply.Step,
	})
}
