package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/formguard/internal/services"
	"github.com/Wikid82/formguard/internal/util"
)

// SubmissionHandler is called by the host form processor once per submission.
type SubmissionHandler struct {
	guard *services.GuardService
}

func NewSubmissionHandler(guard *services.GuardService) *SubmissionHandler {
	return &SubmissionHandler{guard: guard}
}

// ValidateSubmissionRequest carries the fields the form collected plus
// optional client details forwarded by the host.
type ValidateSubmissionRequest struct {
	VisitorFingerprint string `json:"visitor_fingerprint" form:"visitor_fingerprint"`
	VisitorConfidence  string `json:"visitor_confidence" form:"visitor_confidence"`
	EntryID            *int64 `json:"entry_id" form:"entry_id"`
	IPAddress          string `json:"ip_address" form:"ip_address"`
	UserAgent          string `json:"user_agent" form:"user_agent"`
}

// Validate evaluates a submission. It answers 200 when the submission may
// proceed and 422 with a user-facing message when it must be rejected.
func (h *SubmissionHandler) Validate(c *gin.Context) {
	var req ValidateSubmissionRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub := services.Submission{
		VisitorID:  strings.TrimSpace(req.VisitorFingerprint),
		Confidence: ParseConfidence(req.VisitorConfidence),
		EntryID:    req.EntryID,
		IPAddress:  util.ClientIP(c.Request),
		UserAgent:  c.Request.UserAgent(),
	}
	if req.IPAddress != "" {
		sub.IPAddress = util.NormalizeIP(req.IPAddress)
	}
	if req.UserAgent != "" {
		sub.UserAgent = req.UserAgent
	}

	d := h.guard.Evaluate(c.Request.Context(), sub)
	if d.Rejected {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"proceed": false, "error": d.Message, "decision": d})
		return
	}
	c.JSON(http.StatusOK, gin.H{"proceed": true, "decision": d})
}

// ParseConfidence reads the collector's string-encoded score. Missing or
// unparsable values mean no score; parsed values are clamped to [0,1].
func ParseConfidence(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	v = math.Max(0, math.Min(1, v))
	return &v
}
