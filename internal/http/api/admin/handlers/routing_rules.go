package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/models"
	"github.com/smsgrid/sms-gateway/internal/routing"
)

// RoutingRuleHandler serves the routing table as a map of rule groups:
// GET returns it, PUT validates and replaces it atomically.
type RoutingRuleHandler struct {
	rules *routing.Store // Rule store to read and replace.
}

// NewRoutingRuleHandler constructs a RoutingRuleHandler.
func NewRoutingRuleHandler(rules *routing.Store) *RoutingRuleHandler {
	return &RoutingRuleHandler{rules: rules}
}

// List returns every rule group with its rules in evaluation order.
func (h *RoutingRuleHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.rules.Groups())
}

// Replace swaps the whole routing table. The default group must exist
// with at least one rule.
func (h *RoutingRuleHandler) Replace(c *gin.Context) {
	var groups models.RuleGroups
	if errBind := c.ShouldBindJSON(&groups); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(groups) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body cannot be empty"})
		return
	}

	errReplace := h.rules.Replace(c.Request.Context(), groups)
	if errors.Is(errReplace, routing.ErrInvalidRules) {
		c.JSON(http.StatusBadRequest, gin.H{"error": routing.ErrInvalidRules.Error()})
		return
	}
	if errReplace != nil {
		log.WithError(errReplace).Error("routing rule update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist routing rules"})
		return
	}

	log.Info("routing rules persisted and reloaded")
	c.JSON(http.StatusOK, gin.H{"message": "Rules updated and reloaded successfully."})
}
