// Package app boots the gateway: database, stores, destination
// workers, routing engine, and the HTTP API server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/config"
	"github.com/smsgrid/sms-gateway/internal/db"
	"github.com/smsgrid/sms-gateway/internal/dlr"
	"github.com/smsgrid/sms-gateway/internal/gateway"
	adminapi "github.com/smsgrid/sms-gateway/internal/http/api/admin"
	"github.com/smsgrid/sms-gateway/internal/keystore"
	"github.com/smsgrid/sms-gateway/internal/models"
	"github.com/smsgrid/sms-gateway/internal/routing"
	"github.com/smsgrid/sms-gateway/internal/watcher"
)

// RunServer opens the database, loads the shared stores, and serves
// the API until the context is cancelled.
func RunServer(ctx context.Context, cfg config.Config) error {
	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := db.EnsureBootstrapAdminKey(conn, cfg.BootstrapAdminKey); errSeed != nil {
		return errSeed
	}
	if errSeed := db.EnsureDefaultRuleGroup(conn); errSeed != nil {
		return errSeed
	}

	keys := keystore.New(conn)
	if errKeys := keys.Load(ctx); errKeys != nil {
		return errKeys
	}
	rules := routing.NewStore(conn)
	if errRules := rules.Load(ctx); errRules != nil {
		return errRules
	}

	dlrStore := dlr.NewStore()
	forwarder := dlr.NewForwarder(dlrStore, cfg.DLRForwarding.Enabled, cfg.DLRForwarding.URL)

	registry := gateway.NewRegistry(dlrStore)
	var vendors []models.Vendor
	if errVendors := conn.WithContext(ctx).Find(&vendors).Error; errVendors != nil {
		return errVendors
	}
	registry.Rebuild(vendors)

	router := routing.NewEngine(rules, registry, dlrStore, forwarder)

	go watcher.New(conn, keys, rules, registry).Run(ctx)

	engine := gin.New()
	engine.Use(gin.Recovery())
	adminapi.RegisterRoutes(engine, adminapi.Deps{
		DB:       conn,
		Keys:     keys,
		Rules:    rules,
		Registry: registry,
		Router:   router,
		DLRStore: dlrStore,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("gateway listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}
