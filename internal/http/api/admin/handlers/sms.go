package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/models"
	"github.com/smsgrid/sms-gateway/internal/routing"
)

// SMSHandler accepts messages for delivery and hands them to the
// routing engine.
type SMSHandler struct {
	router *routing.Engine // Routing engine for accepted messages.
}

// NewSMSHandler constructs an SMSHandler.
func NewSMSHandler(router *routing.Engine) *SMSHandler {
	return &SMSHandler{router: router}
}

// Send validates the payload, assigns the internal id, and routes the
// message. The caller gets the internal id back for status lookups.
func (h *SMSHandler) Send(c *gin.Context) {
	var msg models.Message
	if errBind := c.ShouldBindJSON(&msg); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if msg.From == "" || msg.To == "" || msg.Text == "" {
		log.WithField("from", msg.From).WithField("to", msg.To).Warn("invalid sms payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	msg.Coding = models.CodingGSM
	msg.InternalID = uuid.NewString()

	log.WithField("from", msg.From).
		WithField("to", msg.To).
		WithField("internalId", msg.InternalID).
		Info("sms accepted")
	h.router.Route(msg)

	c.JSON(http.StatusOK, gin.H{"status": "Message received", "internalId": msg.InternalID})
}
