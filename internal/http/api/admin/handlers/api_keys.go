package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/keystore"
	"github.com/smsgrid/sms-gateway/internal/models"
)

// APIKeyHandler serves the key set as a whole: GET lists it, PUT
// validates and replaces it atomically.
type APIKeyHandler struct {
	keys *keystore.Store // Keystore to read and replace.
}

// NewAPIKeyHandler constructs an APIKeyHandler.
func NewAPIKeyHandler(keys *keystore.Store) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

// List returns every API key, admin keys first.
func (h *APIKeyHandler) List(c *gin.Context) {
	keys, errList := h.keys.All(c.Request.Context())
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list api keys"})
		return
	}
	c.JSON(http.StatusOK, keys)
}

// Replace swaps the whole key set. The new set must contain at least
// one admin key and every entry must carry only the fields its type
// allows.
func (h *APIKeyHandler) Replace(c *gin.Context) {
	var newKeys []models.APIKey
	if errBind := c.ShouldBindJSON(&newKeys); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	errReplace := h.keys.Replace(c.Request.Context(), newKeys)
	if errReplace != nil {
		var validationErr *keystore.ValidationError
		switch {
		case errors.Is(errReplace, keystore.ErrNoAdminKey):
			log.Warn("api key update rejected: no admin key")
			c.JSON(http.StatusBadRequest, gin.H{"error": keystore.ErrNoAdminKey.Error()})
		case errors.As(errReplace, &validationErr):
			log.WithField("reason", validationErr.Reason).Warn("api key update rejected")
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Reason})
		default:
			log.WithError(errReplace).Error("api key update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update api keys"})
		}
		return
	}

	keys, errList := h.keys.All(c.Request.Context())
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list api keys"})
		return
	}
	log.WithField("count", len(keys)).Info("api keys updated")
	c.JSON(http.StatusOK, keys)
}
