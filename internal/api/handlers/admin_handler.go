package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/formguard/internal/api/middleware"
	"github.com/Wikid82/formguard/internal/metrics"
	"github.com/Wikid82/formguard/internal/models"
	"github.com/Wikid82/formguard/internal/services"
	"github.com/Wikid82/formguard/internal/util"
)

// AdminHandler serves the review workflow: listing decisions, statistics
// and spam marking.
type AdminHandler struct {
	logs      *services.FingerprintLogService
	retention *services.RetentionService
	audit     *services.AuditService
}

func NewAdminHandler(logs *services.FingerprintLogService, retention *services.RetentionService, audit *services.AuditService) *AdminHandler {
	return &AdminHandler{logs: logs, retention: retention, audit: audit}
}

// queryInt reads an optional positive integer query parameter.
func queryInt(c *gin.Context, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return nil, fmt.Errorf("%s must be a positive integer", key)
	}
	return &v, nil
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var se *services.StorageError
	switch {
	case errors.Is(err, services.ErrInvalidStatusFilter),
		errors.Is(err, services.ErrInvalidPeriod),
		errors.Is(err, services.ErrInvalidRetention),
		errors.Is(err, services.ErrVisitorIDRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &se):
		middleware.GetRequestLogger(c).WithError(err).Error("decision log unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "decision log unavailable"})
	default:
		middleware.GetRequestLogger(c).WithError(err).Error("admin request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// ListLogs returns recent decisions filtered by status.
func (h *AdminHandler) ListLogs(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n := services.DefaultQueryLimit
	if limit != nil {
		n = *limit
	}

	logs, err := h.logs.Query(c.Request.Context(), c.DefaultQuery("status", services.StatusFilterAll), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// VisitorLogs returns the history of one visitor.
func (h *AdminHandler) VisitorLogs(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n := services.DefaultQueryLimit
	if limit != nil {
		n = *limit
	}

	logs, err := h.logs.QueryByVisitor(c.Request.Context(), strings.TrimSpace(c.Param("visitor_id")), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetStats returns per-status totals, over all time or the last ?days=N.
func (h *AdminHandler) GetStats(c *gin.Context) {
	days, err := queryInt(c, "days")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.logs.AggregateCounts(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// MarkSpam reclassifies every record of a visitor as spam.
func (h *AdminHandler) MarkSpam(c *gin.Context) {
	h.changeSpam(c, "mark_spam", h.logs.MarkSpam)
}

// UnmarkSpam returns a visitor's spam records to allowed.
func (h *AdminHandler) UnmarkSpam(c *gin.Context) {
	h.changeSpam(c, "unmark_spam", h.logs.UnmarkSpam)
}

func (h *AdminHandler) changeSpam(c *gin.Context, action string, apply func(ctx context.Context, visitorID string) (int64, error)) {
	// stored ids are trimmed at evaluation time
	visitorID := strings.TrimSpace(c.Param("visitor_id"))
	affected, err := apply(c.Request.Context(), visitorID)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.AddSpamMarks(action, affected)

	middleware.GetRequestLogger(c).WithFields(map[string]interface{}{
		"visitor_id": util.SanitizeForLog(visitorID),
		"affected":   affected,
		"action":     action,
	}).Info("spam classification changed")
	h.recordAudit(c, action, visitorID, affected, "")

	c.JSON(http.StatusOK, gin.H{"success": true, "affected": affected})
}

// PurgeLogs deletes records older than ?days=N, defaulting to the
// configured retention.
func (h *AdminHandler) PurgeLogs(c *gin.Context) {
	days, err := queryInt(c, "days")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var deleted int64
	if days != nil {
		deleted, err = h.retention.Purge(c.Request.Context(), *days)
	} else {
		deleted, err = h.retention.RunNow(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}
	h.recordAudit(c, "purge", "", deleted, c.Query("days"))
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// ListAudits returns recent operator actions.
func (h *AdminHandler) ListAudits(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n := services.DefaultQueryLimit
	if limit != nil {
		n = *limit
	}
	audits, err := h.audit.ListAudits(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, audits)
}

func (h *AdminHandler) recordAudit(c *gin.Context, action, visitorID string, affected int64, details string) {
	if h.audit == nil {
		return
	}
	a := &models.AdminAudit{
		Actor:     fmt.Sprintf("user:%d", c.GetUint("userID")),
		Action:    action,
		VisitorID: visitorID,
		Affected:  affected,
		Details:   details,
	}
	if err := h.audit.LogAudit(c.Request.Context(), a); err != nil {
		middleware.GetRequestLogger(c).WithError(err).Warn("failed to record audit entry")
	}
}
