package redis

import (
	"context"
	"errors"
	"time"

	"github.com/dealerdesk/api/internal/app"
	"github.com/dealerdesk/api/internal/metrics"
	"github.com/dealerdesk/api/pkg/domain/assignment"
	"github.com/dealerdesk/api/pkg/domain/org"
	"github.com/dealerdesk/api/pkg/domain/role"
	"github.com/dealerdesk/api/pkg/logger"
)

// CachedDirectory fronts a Directory with short-lived caching of the four
// hierarchy lists, so a burst of form opens hits the directory once per TTL.
// User listings and writes always pass through.
type CachedDirectory struct {
	next app.Directory
	log  *logger.Logger

	regions     *Cache[[]org.Region]
	areas       *Cache[[]org.Area]
	territories *Cache[[]org.Territory]
	dealers     *Cache[[]org.Dealer]
}

// NewCachedDirectory wraps next with hierarchy-list caching.
func NewCachedDirectory(next app.Directory, client *Client, ttl time.Duration, log *logger.Logger) (*CachedDirectory, error) {
	if next == nil {
		return nil, errors.New("directory is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	regions, err := NewCache[[]org.Region](client, "hierarchy:regions", ttl)
	if err != nil {
		return nil, err
	}
	areas, err := NewCache[[]org.Area](client, "hierarchy:areas", ttl)
	if err != nil {
		return nil, err
	}
	territories, err := NewCache[[]org.Territory](client, "hierarchy:territories", ttl)
	if err != nil {
		return nil, err
	}
	dealers, err := NewCache[[]org.Dealer](client, "hierarchy:dealers", ttl)
	if err != nil {
		return nil, err
	}

	return &CachedDirectory{
		next:        next,
		log:         log,
		regions:     regions,
		areas:       areas,
		territories: territories,
		dealers:     dealers,
	}, nil
}

var _ app.Directory = (*CachedDirectory)(nil)

// ListRegions returns cached regions, falling through on miss.
func (d *CachedDirectory) ListRegions(ctx context.Context) ([]org.Region, error) {
	return cachedList(ctx, d, d.regions, d.next.ListRegions)
}

// ListAreas returns cached areas, falling through on miss.
func (d *CachedDirectory) ListAreas(ctx context.Context) ([]org.Area, error) {
	return cachedList(ctx, d, d.areas, d.next.ListAreas)
}

// ListTerritories returns cached territories, falling through on miss.
func (d *CachedDirectory) ListTerritories(ctx context.Context) ([]org.Territory, error) {
	return cachedList(ctx, d, d.territories, d.next.ListTerritories)
}

// ListDealers returns cached dealers, falling through on miss.
func (d *CachedDirectory) ListDealers(ctx context.Context) ([]org.Dealer, error) {
	return cachedList(ctx, d, d.dealers, d.next.ListDealers)
}

// ListUsersByRole always passes through; candidate pools must be fresh.
func (d *CachedDirectory) ListUsersByRole(ctx context.Context, name role.Name, filter app.ScopeFilter) ([]assignment.Candidate, error) {
	return d.next.ListUsersByRole(ctx, name, filter)
}

// CreateUser passes through.
func (d *CachedDirectory) CreateUser(ctx context.Context, p app.UserPayload) error {
	return d.next.CreateUser(ctx, p)
}

// UpdateUser passes through.
func (d *CachedDirectory) UpdateUser(ctx context.Context, id string, p app.UserPayload) error {
	return d.next.UpdateUser(ctx, id, p)
}

// CreateDealer passes through and invalidates the dealer list.
func (d *CachedDirectory) CreateDealer(ctx context.Context, p app.DealerPayload) error {
	if err := d.next.CreateDealer(ctx, p); err != nil {
		return err
	}
	d.invalidateDealers(ctx)
	return nil
}

// UpdateDealer passes through and invalidates the dealer list.
func (d *CachedDirectory) UpdateDealer(ctx context.Context, id string, p app.DealerPayload) error {
	if err := d.next.UpdateDealer(ctx, id, p); err != nil {
		return err
	}
	d.invalidateDealers(ctx)
	return nil
}

func (d *CachedDirectory) invalidateDealers(ctx context.Context) {
	if err := d.dealers.Delete(ctx, "all"); err != nil {
		d.log.Warn("dealer cache invalidation failed", "error", err)
	}
}

// cachedList serves one hierarchy list through its cache. Cache failures
// other than a miss degrade to a direct fetch.
func cachedList[T any](ctx context.Context, d *CachedDirectory, cache *Cache[[]T], fetch func(context.Context) ([]T, error)) ([]T, error) {
	cached, err := cache.Get(ctx, "all")
	if err == nil {
		metrics.SnapshotCacheHits.WithLabelValues("hit").Inc()
		return *cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		d.log.Warn("hierarchy cache read failed", "error", err)
	}
	metrics.SnapshotCacheHits.WithLabelValues("miss").Inc()

	fresh, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, "all", fresh); err != nil {
		d.log.Warn("hierarchy cache write failed", "error", err)
	}
	return fresh, nil
}
