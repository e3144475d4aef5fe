// Package gateway holds the outbound side of the message path: the
// destination worker registry and the per-vendor workers the routing
// engine hands matched messages to.
package gateway

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/dlr"
	"github.com/smsgrid/sms-gateway/internal/models"
	"github.com/smsgrid/sms-gateway/internal/ratelimit"
	"github.com/smsgrid/sms-gateway/internal/routing"
)

// AnalyticsDestinationID is the fixed id of the built-in analytics
// sink. It is always registered, independent of vendor configuration.
const AnalyticsDestinationID = "analytics-mock"

// Registry maps destination ids to active workers. Every vendor
// mutation rebuilds the worker set from the enabled vendors, so routing
// always sees the persisted configuration.
type Registry struct {
	mu       sync.RWMutex
	workers  map[string]routing.Destination
	dlrStore *dlr.Store
	limiter  ratelimit.Limiter
}

// NewRegistry constructs a Registry with only the analytics sink
// registered.
func NewRegistry(dlrStore *dlr.Store) *Registry {
	r := &Registry{
		workers:  map[string]routing.Destination{},
		dlrStore: dlrStore,
		limiter:  ratelimit.NewMemoryLimiter(),
	}
	r.workers[AnalyticsDestinationID] = &analyticsWorker{}
	return r
}

// Destination returns the worker for a destination id.
func (r *Registry) Destination(id string) (routing.Destination, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	worker, ok := r.workers[id]
	return worker, ok
}

// ActiveIDs returns the ids of all registered destinations.
func (r *Registry) ActiveIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.workers))
	for id := range r.workers {
		ids = append(ids, id)
	}
	return ids
}

// Rebuild swaps the worker set to match the enabled vendors. Disabled
// and removed vendors lose their workers; the analytics sink always
// stays.
func (r *Registry) Rebuild(vendors []models.Vendor) {
	workers := map[string]routing.Destination{
		AnalyticsDestinationID: &analyticsWorker{},
	}
	for _, vendor := range vendors {
		if !vendor.Enabled {
			log.WithField("vendor", vendor.ID).Debug("vendor disabled, no worker")
			continue
		}
		if vendor.IsSMPP() {
			workers[vendor.ID] = newLogWorker(vendor, r.dlrStore, r.limiter)
		} else {
			workers[vendor.ID] = newHTTPWorker(vendor, r.dlrStore, r.limiter)
		}
		log.WithField("vendor", vendor.ID).
			WithField("type", vendor.Type).
			Info("destination worker registered")
	}

	r.mu.Lock()
	r.workers = workers
	r.mu.Unlock()
	log.WithField("workers", len(workers)).Info("destination registry rebuilt")
}
