package catalog

import (
	"context"
	"fmt"

	"crm_messaging_backend/internal/evaluation/repository"
	"crm_messaging_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Source reads the authoritative catalog rows.
type Source interface {
	ListCatalogProducts(ctx context.Context, tenantID uuid.UUID) ([]repository.CatalogProduct, error)
	ListProductSynonyms(ctx context.Context, tenantID uuid.UUID) ([]repository.ProductSynonym, error)
}

// Indexer loads tenant indexes through an injected cache. Concurrent loads
// for the same tenant share one source read.
type Indexer struct {
	source Source
	cache  Cache
	log    *logger.Logger
	group  singleflight.Group
}

func NewIndexer(source Source, cache Cache, log *logger.Logger) *Indexer {
	if cache == nil {
		cache = NopCache{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Indexer{source: source, cache: cache, log: log}
}

// Load returns the tenant's index. Cache failures are logged and bypassed;
// only source failures are returned.
func (i *Indexer) Load(ctx context.Context, tenantID uuid.UUID) (*Index, error) {
	if idx, ok, err := i.cache.Get(ctx, tenantID); err != nil {
		i.log.Warn("catalog cache read failed", "tenant_id", tenantID, "error", err)
	} else if ok {
		return idx, nil
	}

	v, err, _ := i.group.Do(tenantID.String(), func() (interface{}, error) {
		products, err := i.source.ListCatalogProducts(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("load catalog products: %w", err)
		}
		synonyms, err := i.source.ListProductSynonyms(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("load product synonyms: %w", err)
		}

		idx := Build(tenantID, products, synonyms)
		if err := i.cache.Set(ctx, tenantID, idx); err != nil {
			i.log.Warn("catalog cache write failed", "tenant_id", tenantID, "error", err)
		}
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}

// Invalidate drops the cached index so the next Load rebuilds it.
func (i *Indexer) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	return i.cache.Invalidate(ctx, tenantID)
}
