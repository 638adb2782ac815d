// Package store is the persistence boundary for datasets and their features.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/Datolla/geospot-react/internal/entity"
	"github.com/Datolla/geospot-react/internal/geojson"
)

// DatasetStore is consumed by the ingestion pipeline and the HTTP read
// handlers. Write operations called from inside WithTx run in that
// transaction; a failure anywhere inside the closure rolls the whole
// transaction back, so no partial dataset is ever observable.
type DatasetStore interface {
	// WithTx runs fn against a store bound to a single write transaction.
	// The transaction commits only if fn returns nil.
	WithTx(ctx context.Context, fn func(tx DatasetStore) error) error

	CreateDataset(ctx context.Context, dataset *entity.Dataset) error
	NameExists(ctx context.Context, name string) (bool, error)

	// BulkInsertFeatures inserts features in slice order, all rows or none.
	BulkInsertFeatures(ctx context.Context, datasetID uuid.UUID, features []entity.Feature) (int, error)

	// ComputeBounds returns the minimal envelope over the dataset's
	// features as GeoJSON, or nil when the dataset has no features.
	ComputeBounds(ctx context.Context, datasetID uuid.UUID) (entity.Geometry, error)
	UpdateDatasetStats(ctx context.Context, datasetID uuid.UUID, featureCount int, bounds entity.Geometry) error

	GetDataset(ctx context.Context, id uuid.UUID) (*entity.Dataset, error)

	// ListDatasets orders by upload time descending. limit is clamped to
	// the store's configured maximum; the second result is the total count.
	ListDatasets(ctx context.Context, skip, limit int) ([]entity.Dataset, int64, error)

	// DeleteDataset removes the dataset and, through the foreign-key
	// cascade, every feature it owns.
	DeleteDataset(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	// ExportGeoJSON reconstructs the dataset as a FeatureCollection with
	// each stored feature's id, geometry, and properties, in upload order.
	ExportGeoJSON(ctx context.Context, id uuid.UUID) (*geojson.FeatureCollection, error)
}
