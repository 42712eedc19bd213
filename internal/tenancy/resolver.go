// Package tenancy expands a tenant profile into the set of company ids its
// documents queries may see. Non-PLANNING tenants see only their own
// company; a PLANNING tenant additionally sees every company that declares
// it as planning parent.
package tenancy

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/mascarene/tourdesk/internal/models"
	"github.com/mascarene/tourdesk/internal/session"
	"github.com/mascarene/tourdesk/internal/stream"
	"gorm.io/gorm"
)

const (
	cacheMaxEntries = 10_000
	cacheTTL        = 5 * time.Minute
)

// Resolver answers visibility queries, caching PLANNING child-company
// expansions until the companies collection changes or the TTL lapses.
type Resolver struct {
	db    *gorm.DB
	cache *ristretto.Cache[string, []string]
}

// NewResolver creates a resolver and, when hub is non-nil, drops the cache
// whenever a companies change is published. The watcher lives until ctx is
// cancelled.
func NewResolver(ctx context.Context, db *gorm.DB, hub *stream.Hub) (*Resolver, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []string]{
		NumCounters: cacheMaxEntries * 10,
		MaxCost:     cacheMaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("tenancy cache: %w", err)
	}

	r := &Resolver{db: db, cache: cache}

	if hub != nil {
		changes := hub.Subscribe(ctx, stream.TopicCompanies)
		go func() {
			for range changes {
				cache.Clear()
			}
		}()
	}

	return r, nil
}

// VisibleCompanyIDs returns the company ids whose documents the profile may
// see. The acting company id is always included and always last, so callers
// can rely on a non-empty result for a non-nil profile.
func (r *Resolver) VisibleCompanyIDs(ctx context.Context, profile *session.Profile) ([]string, error) {
	if profile == nil || profile.CompanyID == "" {
		return nil, nil
	}

	if profile.CompanyType != models.CompanyPlanning {
		return []string{profile.CompanyID}, nil
	}

	if ids, ok := r.cache.Get(profile.CompanyID); ok {
		return ids, nil
	}

	var childIDs []string
	err := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("planning_company_id = ?", profile.CompanyID).
		Pluck("id", &childIDs).Error
	if err != nil {
		return nil, fmt.Errorf("expand planning company %s: %w", profile.CompanyID, err)
	}

	ids := append(childIDs, profile.CompanyID)
	r.cache.SetWithTTL(profile.CompanyID, ids, 1, cacheTTL)

	return ids, nil
}

// Close releases the cache.
func (r *Resolver) Close() {
	r.cache.Close()
}
