// Package watcher polls the database for configuration changes made
// outside this process and refreshes the in-memory snapshots when it
// sees one.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/gateway"
	"github.com/smsgrid/sms-gateway/internal/keystore"
	"github.com/smsgrid/sms-gateway/internal/models"
	"github.com/smsgrid/sms-gateway/internal/routing"
	"gorm.io/gorm"
)

// Default timings for the watcher loop.
const (
	// defaultPollInterval controls how often DB snapshots are compared.
	defaultPollInterval = 2 * time.Second
	// defaultQueryTimeout bounds DB query duration.
	defaultQueryTimeout = 10 * time.Second
)

// Watcher compares a hash of the persisted configuration against the
// last seen one and reloads keystore, routing rules, and destination
// workers when they diverge. API handlers already reload on their own
// writes; the watcher covers writes from other processes sharing the
// database.
type Watcher struct {
	db       *gorm.DB
	keys     *keystore.Store
	rules    *routing.Store
	registry *gateway.Registry
	interval time.Duration
	lastHash string
}

// New constructs a Watcher with the default poll interval.
func New(db *gorm.DB, keys *keystore.Store, rules *routing.Store, registry *gateway.Registry) *Watcher {
	return &Watcher{
		db:       db,
		keys:     keys,
		rules:    rules,
		registry: registry,
		interval: defaultPollInterval,
	}
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll runs one compare-and-reload cycle.
func (w *Watcher) Poll(ctx context.Context) {
	queryCtx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	hash, errHash := w.snapshotHash(queryCtx)
	if errHash != nil {
		log.WithError(errHash).Warn("config snapshot failed")
		return
	}
	if hash == w.lastHash {
		return
	}

	first := w.lastHash == ""
	w.lastHash = hash
	if first {
		// The initial boot already loaded everything.
		return
	}

	log.Info("persisted configuration changed, reloading")
	if errKeys := w.keys.Load(queryCtx); errKeys != nil {
		log.WithError(errKeys).Error("reload api keys failed")
	}
	if errRules := w.rules.Load(queryCtx); errRules != nil {
		log.WithError(errRules).Error("reload routing rules failed")
	}
	var vendors []models.Vendor
	if errVendors := w.db.WithContext(queryCtx).Order("id ASC").Find(&vendors).Error; errVendors != nil {
		log.WithError(errVendors).Error("reload vendors failed")
		return
	}
	w.registry.Rebuild(vendors)
}

// snapshotHash hashes every configuration row that feeds an in-memory
// snapshot.
func (w *Watcher) snapshotHash(ctx context.Context) (string, error) {
	var vendors []models.Vendor
	if errFind := w.db.WithContext(ctx).Order("id ASC").Find(&vendors).Error; errFind != nil {
		return "", errFind
	}
	var keys []models.APIKey
	if errFind := w.db.WithContext(ctx).Order("id ASC").Find(&keys).Error; errFind != nil {
		return "", errFind
	}
	var rules []models.RoutingRule
	if errFind := w.db.WithContext(ctx).Order("group_name ASC, position ASC").Find(&rules).Error; errFind != nil {
		return "", errFind
	}

	hasher := sha256.New()
	encoder := json.NewEncoder(hasher)
	if errEncode := encoder.Encode(vendors); errEncode != nil {
		return "", errEncode
	}
	if errEncode := encoder.Encode(keys); errEncode != nil {
		return "", errEncode
	}
	if errEncode := encoder.Encode(rules); errEncode != nil {
		return "", errEncode
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
