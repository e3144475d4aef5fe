package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/gateway"
	"github.com/smsgrid/sms-gateway/internal/models"
	"gorm.io/gorm"
)

// VendorHandler manages admin CRUD for vendor connections. Every
// successful mutation rebuilds the destination worker registry so
// routing immediately sees the persisted set.
type VendorHandler struct {
	db       *gorm.DB          // Database handle for vendors.
	registry *gateway.Registry // Destination workers to rebuild on change.
}

// NewVendorHandler constructs a VendorHandler.
func NewVendorHandler(db *gorm.DB, registry *gateway.Registry) *VendorHandler {
	return &VendorHandler{db: db, registry: registry}
}

// List returns every configured vendor.
func (h *VendorHandler) List(c *gin.Context) {
	var vendors []models.Vendor
	if errList := h.db.WithContext(c.Request.Context()).Order("id ASC").Find(&vendors).Error; errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list vendors"})
		return
	}
	c.JSON(http.StatusOK, vendors)
}

// Get returns a single vendor by id.
func (h *VendorHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor id cannot be empty"})
		return
	}

	var vendor models.Vendor
	errGet := h.db.WithContext(c.Request.Context()).First(&vendor, "id = ?", id).Error
	if errors.Is(errGet, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "vendor not found"})
		return
	}
	if errGet != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load vendor"})
		return
	}
	c.JSON(http.StatusOK, vendor)
}

// Create inserts a new vendor. Duplicate ids answer 409.
func (h *VendorHandler) Create(c *gin.Context) {
	var vendor models.Vendor
	if errBind := c.ShouldBindJSON(&vendor); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	vendor.ID = strings.TrimSpace(vendor.ID)
	if vendor.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor id cannot be empty"})
		return
	}
	vendor.ApplyDefaults()

	ctx := c.Request.Context()
	var count int64
	if errCount := h.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", vendor.ID).Count(&count).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check vendor"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "vendor with id '" + vendor.ID + "' already exists"})
		return
	}

	if errCreate := h.db.WithContext(ctx).Create(&vendor).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create vendor"})
		return
	}

	h.reloadWorkers(ctx)
	log.WithField("vendor", vendor.ID).Info("vendor created")
	c.JSON(http.StatusCreated, vendor)
}

// Update replaces a vendor's configuration. The id in the path wins; a
// mismatching body id is rejected.
func (h *VendorHandler) Update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor id cannot be empty"})
		return
	}

	var vendor models.Vendor
	if errBind := c.ShouldBindJSON(&vendor); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if vendor.ID != "" && vendor.ID != id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor id in path does not match id in body"})
		return
	}
	vendor.ID = id
	vendor.ApplyDefaults()

	ctx := c.Request.Context()
	errSave := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errDelete := tx.Delete(&models.Vendor{}, "id = ?", id).Error; errDelete != nil {
			return errDelete
		}
		return tx.Create(&vendor).Error
	})
	if errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update vendor"})
		return
	}

	h.reloadWorkers(ctx)
	log.WithField("vendor", id).Info("vendor updated")
	c.JSON(http.StatusOK, vendor)
}

// Delete removes a vendor. Missing ids answer 404.
func (h *VendorHandler) Delete(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor id cannot be empty"})
		return
	}

	ctx := c.Request.Context()
	result := h.db.WithContext(ctx).Delete(&models.Vendor{}, "id = ?", id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete vendor"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "vendor with id '" + id + "' not found"})
		return
	}

	h.reloadWorkers(ctx)
	log.WithField("vendor", id).Info("vendor deleted")
	c.Status(http.StatusNoContent)
}

// reloadWorkers rebuilds the destination registry from the persisted
// vendor set. Reload failures are logged; the mutation itself already
// succeeded.
func (h *VendorHandler) reloadWorkers(ctx context.Context) {
	var vendors []models.Vendor
	if errList := h.db.WithContext(ctx).Find(&vendors).Error; errList != nil {
		log.WithError(errList).Error("vendor saved but worker reload failed")
		return
	}
	h.registry.Rebuild(vendors)
}
