package catalog

import (
	"context"
	"time"

	"almacen/internal/config"
	"almacen/internal/storage"
)

type SyncService struct {
	db     *storage.DB
	client *Client
	cfg    config.Config
}

func NewSyncService(db *storage.DB, cfg config.Config) *SyncService {
	return &SyncService{db: db, client: NewClient(cfg), cfg: cfg}
}

func (s *SyncService) FullSync(ctx context.Context) (int, error) {
	products, err := s.client.GetProductsAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.db.UpsertProducts(products); err != nil {
		return 0, err
	}
	_ = s.db.SetMetadata("catalog.last_full_sync", time.Now().UTC().Format(time.RFC3339))
	return len(products), nil
}

func (s *SyncService) IncrementalSync(ctx context.Context) (int, error) {
	products, err := s.client.GetProductsUpdatedSince(ctx, s.cfg.CatalogLookbackHours)
	if err != nil {
		return 0, err
	}
	if len(products) > 0 {
		if err := s.db.UpsertProducts(products); err != nil {
			return 0, err
		}
	}
	_ = s.db.SetMetadata("catalog.last_incremental_sync", time.Now().UTC().Format(time.RFC3339))
	return len(products), nil
}
