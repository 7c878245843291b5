package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/intake-chat/internal/auth"
	"github.com/suPer8Hu/intake-chat/internal/common"
	"github.com/suPer8Hu/intake-chat/internal/contact"
	"github.com/suPer8Hu/intake-chat/internal/events"
)

func (h *Handler) Health(c *gin.Context) {
	common.OK(c, gin.H{"service": serviceName, "timestamp": h.now().UnixMilli()})
}

func (h *Handler) NotFound(c *gin.Context) {
	common.Fail(c, http.StatusNotFound, "Not found", nil)
}

func (h *Handler) Contact(c *gin.Context) {
	var in contact.Inquiry
	if err := c.ShouldBindJSON(&in); err != nil {
		common.Fail(c, http.StatusBadRequest, "Invalid request", nil)
		return
	}

	err := h.ContactSvc.Submit(c.Request.Context(), in)
	switch {
	case err == nil:
		common.OK(c, nil)
	case errors.Is(err, common.ErrInvalidInput):
		common.Fail(c, http.StatusBadRequest, "Invalid input", nil)
	case errors.Is(err, common.ErrDeliveryFailed):
		slog.Error("contact delivery failed", "err", err)
		common.Fail(c, http.StatusBadGateway, "Mail send failed", nil)
	default:
		slog.Error("contact failed", "err", err)
		common.Fail(c, http.StatusInternalServerError, "Internal error", nil)
	}
}

type loginReq struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "Invalid request", nil)
		return
	}
	if !auth.CheckPassword(h.Admin.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	ttl := h.Admin.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	token, err := auth.SignJWT("admin", h.Admin.JWTSecret, ttl)
	if err != nil {
		slog.Error("sign admin token failed", "err", err)
		common.Fail(c, http.StatusInternalServerError, "Internal error", nil)
		return
	}
	common.OK(c, gin.H{"token": token, "expires_in": int(ttl.Seconds())})
}

// AdminMetrics returns the daily aggregates for ?date=YYYY-MM-DD (UTC,
// default today).
func (h *Handler) AdminMetrics(c *gin.Context) {
	day := h.now().UTC()
	if v := c.Query("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			common.Fail(c, http.StatusBadRequest, "Invalid date", nil)
			return
		}
		day = d
	}

	ctx := c.Request.Context()
	out := gin.H{"date": day.Format("2006-01-02")}
	for _, typ := range []string{events.QueryClassification, events.LLMCall} {
		agg, err := h.Metrics.Daily(ctx, typ, day)
		if err != nil {
			slog.Warn("metrics read failed", "type", typ, "err", err)
		}
		out[typ] = agg
	}
	common.OK(c, out)
}
