package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/formguard/internal/services"
)

// SettingsHandler exposes the active admission policy.
type SettingsHandler struct {
	guard *services.GuardService
}

func NewSettingsHandler(guard *services.GuardService) *SettingsHandler {
	return &SettingsHandler{guard: guard}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.guard.Config())
}

// Update replaces the policy. Out-of-range values are clamped and the
// adjustments returned as warnings.
func (h *SettingsHandler) Update(c *gin.Context) {
	cfg := h.guard.Config()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	warnings := h.guard.UpdateConfig(cfg)
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"settings": h.guard.Config(), "warnings": warnings})
}
