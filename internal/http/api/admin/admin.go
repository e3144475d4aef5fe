// Package admin wires the administrative and message-sending HTTP API.
package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/smsgrid/sms-gateway/internal/auth"
	"github.com/smsgrid/sms-gateway/internal/dlr"
	"github.com/smsgrid/sms-gateway/internal/gateway"
	"github.com/smsgrid/sms-gateway/internal/http/api/admin/handlers"
	"github.com/smsgrid/sms-gateway/internal/keystore"
	"github.com/smsgrid/sms-gateway/internal/routing"
	"gorm.io/gorm"
)

// Deps carries the shared components the API surfaces operate on.
type Deps struct {
	DB       *gorm.DB
	Keys     *keystore.Store
	Rules    *routing.Store
	Registry *gateway.Registry
	Router   *routing.Engine
	DLRStore *dlr.Store
}

// RegisterRoutes registers the admin CRUD surfaces, the message-sender
// endpoints, and the health check.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/healthz", healthHandler.Healthz)

	adminGroup := r.Group("/api/admin")
	adminGroup.Use(auth.RequireAdmin(deps.Keys))

	vendorHandler := handlers.NewVendorHandler(deps.DB, deps.Registry)
	adminGroup.GET("/vendors", vendorHandler.List)
	adminGroup.GET("/vendors/:id", vendorHandler.Get)
	adminGroup.POST("/vendors", vendorHandler.Create)
	adminGroup.PUT("/vendors/:id", vendorHandler.Update)
	adminGroup.DELETE("/vendors/:id", vendorHandler.Delete)

	apiKeyHandler := handlers.NewAPIKeyHandler(deps.Keys)
	adminGroup.GET("/api-keys", apiKeyHandler.List)
	adminGroup.PUT("/api-keys", apiKeyHandler.Replace)

	routingHandler := handlers.NewRoutingRuleHandler(deps.Rules)
	adminGroup.GET("/routing-rules", routingHandler.List)
	adminGroup.PUT("/routing-rules", routingHandler.Replace)

	senderGroup := r.Group("/api")
	senderGroup.Use(auth.RequireMessageSender(deps.Keys))

	smsHandler := handlers.NewSMSHandler(deps.Router)
	senderGroup.POST("/sms/send", smsHandler.Send)

	dlrHandler := handlers.NewDLRHandler(deps.DLRStore)
	senderGroup.GET("/dlr/status", dlrHandler.Status)
}
