// Package refdata loads the reference data the invoice panel needs on every
// screen and caches it in Redis.
package refdata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/stockdesk/internal/api"
	"github.com/odyssey-erp/stockdesk/internal/invoice"
)

// Upstream is the part of the API client the loader reads from.
type Upstream interface {
	ListStock(ctx context.Context) ([]api.StockItem, error)
	ListLookups(ctx context.Context, kind api.LookupKind) ([]api.Lookup, error)
	LastInvoiceID(ctx context.Context) (int64, error)
}

// Snapshot is one consistent load of reference data.
type Snapshot struct {
	Stock         []invoice.ItemOption `json:"stock"`
	Machines      []api.Lookup         `json:"machines"`
	Mechanisms    []api.Lookup         `json:"mechanisms"`
	Suppliers     []api.Lookup         `json:"suppliers"`
	LastInvoiceID int64                `json:"last_invoice_id"`
	Types         []invoice.Type       `json:"types"`
	LoadedAt      time.Time            `json:"loaded_at"`
}

// Lookups returns the collection of one kind.
func (s Snapshot) Lookups(kind api.LookupKind) []api.Lookup {
	switch kind {
	case api.LookupMachines:
		return s.Machines
	case api.LookupMechanisms:
		return s.Mechanisms
	case api.LookupSuppliers:
		return s.Suppliers
	default:
		return nil
	}
}

// Loader fetches and caches snapshots.
type Loader struct {
	upstream Upstream
	cache    *Cache
	metrics  *Metrics
	logger   *slog.Logger
	group    singleflight.Group
	clock    func() time.Time
}

// NewLoader builds a Loader. cache and metrics may be nil.
func NewLoader(upstream Upstream, cache *Cache, metrics *Metrics, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		upstream: upstream,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

var _ invoice.StockSource = (*Loader)(nil)

// loadTimeout bounds a shared upstream load once it no longer follows the
// context of the caller that started it.
const loadTimeout = 30 * time.Second

// Load returns the cached snapshot, loading it upstream on a miss. Concurrent
// misses share one upstream load; a caller whose context ends gets its error
// while the load carries on for the others.
func (l *Loader) Load(ctx context.Context) (Snapshot, error) {
	key, err := l.cache.BuildKey(ctx, "snapshot")
	if err != nil {
		return Snapshot{}, fmt.Errorf("refdata: build key: %w", err)
	}
	ch := l.group.DoChan(key, func() (any, error) {
		// a shared flight outlives the caller that started it
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		var snap Snapshot
		hit, err := l.cache.FetchJSON(fctx, key, &snap, func(ctx context.Context) (any, error) {
			return l.fetch(ctx)
		})
		l.metrics.recordLookup(hit)
		return snap, err
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

// Stock returns the items that can be picked in the invoice table.
func (l *Loader) Stock(ctx context.Context) ([]invoice.ItemOption, error) {
	snap, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Stock, nil
}

// Invalidate drops the cached snapshot, after stock moving writes.
func (l *Loader) Invalidate(ctx context.Context) error {
	if err := l.cache.Bump(ctx); err != nil {
		return fmt.Errorf("refdata: invalidate: %w", err)
	}
	return nil
}

// Warm loads a fresh snapshot into the cache.
func (l *Loader) Warm(ctx context.Context) error {
	if err := l.Invalidate(ctx); err != nil {
		return err
	}
	snap, err := l.Load(ctx)
	if err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "refdata warmed", slog.Int("stock_items", len(snap.Stock)), slog.Int64("last_invoice_id", snap.LastInvoiceID))
	return nil
}

// fetch loads every collection in parallel. A load that times out before all
// parts arrive is discarded rather than cached.
func (l *Loader) fetch(ctx context.Context) (Snapshot, error) {
	start := l.clock()
	snap := Snapshot{Types: invoice.Types}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := l.upstream.ListStock(gctx)
		if err != nil {
			return fmt.Errorf("stock: %w", err)
		}
		snap.Stock = make([]invoice.ItemOption, 0, len(items))
		for _, it := range items {
			snap.Stock = append(snap.Stock, it.Option())
		}
		return nil
	})
	for _, kind := range api.LookupKinds {
		kind := kind
		g.Go(func() error {
			list, err := l.upstream.ListLookups(gctx, kind)
			if err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
			switch kind {
			case api.LookupMachines:
				snap.Machines = list
			case api.LookupMechanisms:
				snap.Mechanisms = list
			case api.LookupSuppliers:
				snap.Suppliers = list
			}
			return nil
		})
	}
	g.Go(func() error {
		id, err := l.upstream.LastInvoiceID(gctx)
		if err != nil {
			return fmt.Errorf("last invoice id: %w", err)
		}
		snap.LastInvoiceID = id
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("refdata: load: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	snap.LoadedAt = l.clock()
	l.metrics.observeLoad(snap.LoadedAt.Sub(start))
	return snap, nil
}
