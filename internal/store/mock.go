package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Datolla/geospot-react/internal/apperr"
	"github.com/Datolla/geospot-react/internal/entity"
	"github.com/Datolla/geospot-react/internal/geojson"
)

// Mock is an in-memory DatasetStore for tests. WithTx snapshots state before
// running the closure and restores it on error, mirroring the rollback
// guarantee of the real store. Failure injection fields let tests force
// faults at individual operations.
type Mock struct {
	mu       sync.Mutex
	Datasets []entity.Dataset
	Features map[uuid.UUID][]entity.Feature

	FailCreate      error
	FailNameExists  error
	FailBulkInsert  error
	FailBounds      error
	FailUpdateStats error

	CreateCalls int
	InsertCalls int
}

func NewMock() *Mock {
	return &Mock{Features: map[uuid.UUID][]entity.Feature{}}
}

func (m *Mock) WithTx(ctx context.Context, fn func(tx DatasetStore) error) error {
	m.mu.Lock()
	savedDatasets := append([]entity.Dataset(nil), m.Datasets...)
	savedFeatures := map[uuid.UUID][]entity.Feature{}
	for id, feats := range m.Features {
		savedFeatures[id] = append([]entity.Feature(nil), feats...)
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.Datasets = savedDatasets
		m.Features = savedFeatures
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Mock) CreateDataset(ctx context.Context, dataset *entity.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.FailCreate != nil {
		return m.FailCreate
	}
	for _, existing := range m.Datasets {
		if existing.Name == dataset.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if dataset.ID == uuid.Nil {
		dataset.ID = uuid.New()
	}
	if dataset.UploadedAt.IsZero() {
		dataset.UploadedAt = time.Now()
	}
	m.Datasets = append(m.Datasets, *dataset)
	return nil
}

func (m *Mock) NameExists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNameExists != nil {
		return false, m.FailNameExists
	}
	for _, dataset := range m.Datasets {
		if dataset.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *Mock) BulkInsertFeatures(ctx context.Context, datasetID uuid.UUID, features []entity.Feature) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.FailBulkInsert != nil {
		return 0, m.FailBulkInsert
	}
	for i := range features {
		features[i].DatasetID = datasetID
		features[i].Position = i
		if features[i].ID == uuid.Nil {
			features[i].ID = uuid.New()
		}
	}
	m.Features[datasetID] = append(m.Features[datasetID], features...)
	return len(features), nil
}

func (m *Mock) ComputeBounds(ctx context.Context, datasetID uuid.UUID) (entity.Geometry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailBounds != nil {
		return nil, m.FailBounds
	}
	if len(m.Features[datasetID]) == 0 {
		return nil, nil
	}
	// A fixed envelope stands in for the PostGIS aggregate.
	return entity.Geometry(`{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]}`), nil
}

func (m *Mock) UpdateDatasetStats(ctx context.Context, datasetID uuid.UUID, featureCount int, bounds entity.Geometry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdateStats != nil {
		return m.FailUpdateStats
	}
	for i := range m.Datasets {
		if m.Datasets[i].ID == datasetID {
			m.Datasets[i].FeatureCount = featureCount
			m.Datasets[i].Bounds = bounds
			return nil
		}
	}
	return apperr.New(apperr.NotFound, "dataset %s not found", datasetID)
}

func (m *Mock) GetDataset(ctx context.Context, id uuid.UUID) (*entity.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, dataset := range m.Datasets {
		if dataset.ID == id {
			found := dataset
			return &found, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "dataset %s not found", id)
}

func (m *Mock) ListDatasets(ctx context.Context, skip, limit int) ([]entity.Dataset, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if skip < 0 {
		skip = 0
	}
	total := int64(len(m.Datasets))
	if skip >= len(m.Datasets) {
		return nil, total, nil
	}
	end := skip + limit
	if end > len(m.Datasets) {
		end = len(m.Datasets)
	}
	return append([]entity.Dataset(nil), m.Datasets[skip:end]...), total, nil
}

func (m *Mock) DeleteDataset(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, dataset := range m.Datasets {
		if dataset.ID == id {
			m.Datasets = append(m.Datasets[:i], m.Datasets[i+1:]...)
			delete(m.Features, id)
			return id, nil
		}
	}
	return uuid.Nil, apperr.New(apperr.NotFound, "dataset %s not found", id)
}

func (m *Mock) ExportGeoJSON(ctx context.Context, id uuid.UUID) (*geojson.FeatureCollection, error) {
	if _, err := m.GetDataset(ctx, id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fc := &geojson.FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]*geojson.Feature, 0, len(m.Features[id])),
	}
	for _, feature := range m.Features[id] {
		var geom geojson.Geometry
		if err := json.Unmarshal(feature.Geometry, &geom); err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Type:       "Feature",
			ID:         feature.ID.String(),
			Geometry:   &geom,
			Properties: json.RawMessage(feature.Properties),
		})
	}
	return fc, nil
}
