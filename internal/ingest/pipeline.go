// Package ingest orchestrates GeoJSON uploads: file checks, parsing,
// validation, and the transactional persist. A failed ingestion leaves no
// rows behind.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Datolla/geospot-react/internal/apperr"
	"github.com/Datolla/geospot-react/internal/entity"
	"github.com/Datolla/geospot-react/internal/geojson"
	"github.com/Datolla/geospot-react/internal/store"
)

var recognizedExtensions = map[string]bool{
	".geojson": true,
	".json":    true,
}

type Pipeline struct {
	store          store.DatasetStore
	logger         *zap.Logger
	maxUploadBytes int64
}

func NewPipeline(st store.DatasetStore, logger *zap.Logger, maxUploadBytes int64) *Pipeline {
	return &Pipeline{store: st, logger: logger, maxUploadBytes: maxUploadBytes}
}

// Summary describes a completed ingestion.
type Summary struct {
	DatasetID     uuid.UUID `json:"dataset_id"`
	Name          string    `json:"name"`
	FeatureCount  int       `json:"feature_count"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// DatasetName derives the dataset name from an uploaded filename by
// stripping any directory part and the extension.
func DatasetName(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Ingest validates and persists one uploaded GeoJSON file. Every check runs
// before the first write; the persist step is all-or-nothing inside a single
// transaction. Two concurrent uploads of the same name may both pass the
// pre-check, so a unique violation at insert time is translated into the
// same DuplicateName error.
func (p *Pipeline) Ingest(ctx context.Context, fileName string, data []byte) (*Summary, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !recognizedExtensions[ext] {
		return nil, apperr.New(apperr.UnsupportedFileType, "unsupported file type %q, only .geojson and .json files are allowed", ext)
	}

	if int64(len(data)) > p.maxUploadBytes {
		return nil, apperr.New(apperr.PayloadTooLarge, "file is %d bytes, the limit is %d bytes", len(data), p.maxUploadBytes)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, apperr.Wrap(apperr.MalformedDocument, "file is not valid JSON", err)
	}

	if err := fc.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.InvalidGeoJSON, "invalid GeoJSON", err)
	}

	name := DatasetName(fileName)
	exists, err := p.store.NameExists(ctx, name)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreFailure, "failed to check dataset name", err)
	}
	if exists {
		return nil, apperr.New(apperr.DuplicateName, "a dataset named %q already exists", name)
	}

	dataset := &entity.Dataset{
		Name:          name,
		Description:   fmt.Sprintf("Uploaded GeoJSON file with %d features", len(fc.Features)),
		FileSizeBytes: int64(len(data)),
	}

	err = p.store.WithTx(ctx, func(tx store.DatasetStore) error {
		if err := tx.CreateDataset(ctx, dataset); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.New(apperr.DuplicateName, "a dataset named %q already exists", name)
			}
			return apperr.Wrap(apperr.StoreFailure, "failed to create dataset", err)
		}

		features := make([]entity.Feature, len(fc.Features))
		for i, feature := range fc.Features {
			geomJSON, err := json.Marshal(feature.Geometry)
			if err != nil {
				return apperr.Wrap(apperr.StoreFailure, "failed to encode geometry", err)
			}
			features[i] = entity.Feature{
				Position:   i,
				Geometry:   entity.Geometry(geomJSON),
				Properties: datatypes.JSON(feature.NormalizedProperties()),
			}
		}

		count, err := tx.BulkInsertFeatures(ctx, dataset.ID, features)
		if err != nil {
			return apperr.Wrap(apperr.StoreFailure, "failed to insert features", err)
		}

		bounds, err := tx.ComputeBounds(ctx, dataset.ID)
		if err != nil {
			return apperr.Wrap(apperr.StoreFailure, "failed to compute dataset bounds", err)
		}

		if err := tx.UpdateDatasetStats(ctx, dataset.ID, count, bounds); err != nil {
			return apperr.Wrap(apperr.StoreFailure, "failed to update dataset stats", err)
		}

		dataset.FeatureCount = count
		dataset.Bounds = bounds
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("Dataset ingested",
		zap.String("dataset", dataset.Name),
		zap.String("dataset_id", dataset.ID.String()),
		zap.Int("feature_count", dataset.FeatureCount),
		zap.Int64("file_size_bytes", dataset.FileSizeBytes),
	)

	return &Summary{
		DatasetID:     dataset.ID,
		Name:          dataset.Name,
		FeatureCount:  dataset.FeatureCount,
		FileSizeBytes: dataset.FileSizeBytes,
		UploadedAt:    dataset.UploadedAt,
	}, nil
}
