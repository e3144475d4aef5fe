package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smsgrid/sms-gateway/internal/dlr"
)

// DLRHandler serves delivery-report status snapshots.
type DLRHandler struct {
	store *dlr.Store // In-memory delivery record store.
}

// NewDLRHandler constructs a DLRHandler.
func NewDLRHandler(store *dlr.Store) *DLRHandler {
	return &DLRHandler{store: store}
}

// Status returns every known delivery record.
func (h *DLRHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.All())
}
