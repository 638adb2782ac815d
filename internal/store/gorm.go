package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Datolla/geospot-react/internal/apperr"
	"github.com/Datolla/geospot-react/internal/entity"
	"github.com/Datolla/geospot-react/internal/geojson"
)

const insertBatchSize = 500

// geojsonPrecision is the maxdecimaldigits argument for ST_AsGeoJSON. The
// PostGIS default of 9 truncates double-precision ordinates; 15 digits keep
// exports byte-faithful to what was uploaded.
const geojsonPrecision = 15

// datasetColumns reads bounds through ST_AsGeoJSON so the Geometry field
// scans GeoJSON text instead of EWKB.
const datasetColumns = "id, name, description, uploaded_at, feature_count, file_size_bytes, ST_AsGeoJSON(bounds, 15) AS bounds"

type gormStore struct {
	db          *gorm.DB
	maxPageSize int
}

func NewGormStore(db *gorm.DB, maxPageSize int) DatasetStore {
	return &gormStore{db: db, maxPageSize: maxPageSize}
}

func (s *gormStore) WithTx(ctx context.Context, fn func(tx DatasetStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, maxPageSize: s.maxPageSize})
	})
}

func (s *gormStore) CreateDataset(ctx context.Context, dataset *entity.Dataset) error {
	return s.db.WithContext(ctx).Create(dataset).Error
}

func (s *gormStore) NameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&entity.Dataset{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormStore) BulkInsertFeatures(ctx context.Context, datasetID uuid.UUID, features []entity.Feature) (int, error) {
	if len(features) == 0 {
		return 0, nil
	}
	for i := range features {
		features[i].DatasetID = datasetID
		features[i].Position = i
	}
	if err := s.db.WithContext(ctx).CreateInBatches(features, insertBatchSize).Error; err != nil {
		return 0, err
	}
	return len(features), nil
}

func (s *gormStore) ComputeBounds(ctx context.Context, datasetID uuid.UUID) (entity.Geometry, error) {
	var bounds sql.NullString
	row := s.db.WithContext(ctx).Raw(
		"SELECT ST_AsGeoJSON(ST_Envelope(ST_Extent(geometry)::geometry), ?) FROM features WHERE dataset_id = ?",
		geojsonPrecision, datasetID,
	).Row()
	if err := row.Scan(&bounds); err != nil {
		return nil, err
	}
	if !bounds.Valid {
		return nil, nil
	}
	return entity.Geometry(bounds.String), nil
}

func (s *gormStore) UpdateDatasetStats(ctx context.Context, datasetID uuid.UUID, featureCount int, bounds entity.Geometry) error {
	updates := map[string]interface{}{"feature_count": featureCount}
	if len(bounds) == 0 {
		updates["bounds"] = gorm.Expr("NULL")
	} else {
		updates["bounds"] = gorm.Expr("ST_SetSRID(ST_GeomFromGeoJSON(?), ?)", string(bounds), entity.SRID)
	}
	return s.db.WithContext(ctx).Model(&entity.Dataset{}).Where("id = ?", datasetID).Updates(updates).Error
}

func (s *gormStore) GetDataset(ctx context.Context, id uuid.UUID) (*entity.Dataset, error) {
	var dataset entity.Dataset
	err := s.db.WithContext(ctx).Select(datasetColumns).Where("id = ?", id).First(&dataset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "dataset %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (s *gormStore) ListDatasets(ctx context.Context, skip, limit int) ([]entity.Dataset, int64, error) {
	if skip < 0 {
		skip = 0
	}
	limit = clampLimit(limit, s.maxPageSize)

	var total int64
	if err := s.db.WithContext(ctx).Model(&entity.Dataset{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var datasets []entity.Dataset
	err := s.db.WithContext(ctx).
		Select(datasetColumns).
		Order("uploaded_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&datasets).Error
	if err != nil {
		return nil, 0, err
	}
	return datasets, total, nil
}

func (s *gormStore) DeleteDataset(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Dataset{})
	if result.Error != nil {
		return uuid.Nil, result.Error
	}
	if result.RowsAffected == 0 {
		return uuid.Nil, apperr.New(apperr.NotFound, "dataset %s not found", id)
	}
	return id, nil
}

func (s *gormStore) ExportGeoJSON(ctx context.Context, id uuid.UUID) (*geojson.FeatureCollection, error) {
	if _, err := s.GetDataset(ctx, id); err != nil {
		return nil, err
	}

	type featureRow struct {
		ID         uuid.UUID
		Geometry   entity.Geometry
		Properties json.RawMessage
	}
	var rows []featureRow
	err := s.db.WithContext(ctx).
		Model(&entity.Feature{}).
		Select("id, ST_AsGeoJSON(geometry, 15) AS geometry, properties").
		Where("dataset_id = ?", id).
		Order("position ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	fc := &geojson.FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]*geojson.Feature, 0, len(rows)),
	}
	for _, row := range rows {
		var geom geojson.Geometry
		if err := json.Unmarshal(row.Geometry, &geom); err != nil {
			return nil, fmt.Errorf("failed to decode stored geometry for feature %s: %w", row.ID, err)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Type:       "Feature",
			ID:         row.ID.String(),
			Geometry:   &geom,
			Properties: row.Properties,
		})
	}
	return fc, nil
}

func clampLimit(limit, max int) int {
	if limit < 0 {
		return 0
	}
	if limit > max {
		return max
	}
	return limit
}
