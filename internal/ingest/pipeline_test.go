package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Datolla/geospot-react/internal/apperr"
	"github.com/Datolla/geospot-react/internal/store"
)

const maxUploadBytes = 10 << 20

const validDocument = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [13.4, 52.5]}, "properties": {"name": "berlin"}},
		{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": {"length": 1.41}},
		{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [0, 1], [1, 1], [0, 0]]]}}
	]
}`

func newPipeline(t *testing.T) (*Pipeline, *store.Mock) {
	t.Helper()
	mock := store.NewMock()
	return NewPipeline(mock, zap.NewNop(), maxUploadBytes), mock
}

func TestDatasetName(t *testing.T) {
	assert.Equal(t, "rivers", DatasetName("rivers.geojson"))
	assert.Equal(t, "rivers", DatasetName("uploads/rivers.json"))
	assert.Equal(t, "Rivers.backup", DatasetName("Rivers.backup.geojson"))
}

func TestIngestRejectsBeforeAnyWrite(t *testing.T) {
	tests := []struct {
		name         string
		fileName     string
		data         string
		expectedKind apperr.Kind
	}{
		{
			name:         "unsupported extension",
			fileName:     "boundaries.shp",
			data:         validDocument,
			expectedKind: apperr.UnsupportedFileType,
		},
		{
			name:         "extension check is case-insensitive but exact",
			fileName:     "noextension",
			data:         validDocument,
			expectedKind: apperr.UnsupportedFileType,
		},
		{
			name:         "malformed JSON",
			fileName:     "broken.geojson",
			data:         `{"type": "FeatureCollection", "features": [`,
			expectedKind: apperr.MalformedDocument,
		},
		{
			name:         "not a feature collection",
			fileName:     "point.geojson",
			data:         `{"type": "Point", "coordinates": [1, 2]}`,
			expectedKind: apperr.InvalidGeoJSON,
		},
		{
			name:         "invalid geometry",
			fileName:     "bad.geojson",
			data:         `{"type": "FeatureCollection", "features": [{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[0,0],[0,1],[1,1],[1,0]]]}}]}`,
			expectedKind: apperr.InvalidGeoJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline, mock := newPipeline(t)

			summary, err := pipeline.Ingest(context.Background(), tt.fileName, []byte(tt.data))
			require.Error(t, err)
			assert.Nil(t, summary)
			assert.Equal(t, tt.expectedKind, apperr.KindOf(err))

			assert.Zero(t, mock.CreateCalls)
			assert.Zero(t, mock.InsertCalls)
			assert.Empty(t, mock.Datasets)
		})
	}
}

func TestIngestUppercaseExtension(t *testing.T) {
	pipeline, _ := newPipeline(t)

	summary, err := pipeline.Ingest(context.Background(), "CITIES.GeoJSON", []byte(validDocument))
	require.NoError(t, err)
	assert.Equal(t, "CITIES", summary.Name)
}

func TestIngestPayloadTooLarge(t *testing.T) {
	mock := store.NewMock()
	pipeline := NewPipeline(mock, zap.NewNop(), 16)

	_, err := pipeline.Ingest(context.Background(), "big.geojson", []byte(validDocument))
	assert.Equal(t, apperr.PayloadTooLarge, apperr.KindOf(err))
	assert.Empty(t, mock.Datasets)
}

func TestIngestSuccess(t *testing.T) {
	pipeline, mock := newPipeline(t)

	summary, err := pipeline.Ingest(context.Background(), "cities.geojson", []byte(validDocument))
	require.NoError(t, err)

	assert.Equal(t, "cities", summary.Name)
	assert.Equal(t, 3, summary.FeatureCount)
	assert.Equal(t, int64(len(validDocument)), summary.FileSizeBytes)
	assert.False(t, summary.UploadedAt.IsZero())

	require.Len(t, mock.Datasets, 1)
	dataset := mock.Datasets[0]
	assert.Equal(t, summary.DatasetID, dataset.ID)
	assert.Equal(t, "Uploaded GeoJSON file with 3 features", dataset.Description)
	assert.Equal(t, 3, dataset.FeatureCount)
	assert.NotEmpty(t, dataset.Bounds)

	features := mock.Features[dataset.ID]
	require.Len(t, features, 3)
	for i, feature := range features {
		assert.Equal(t, i, feature.Position)
		assert.Equal(t, dataset.ID, feature.DatasetID)
	}

	// Properties copied verbatim; absent properties normalize to {}.
	var props map[string]interface{}
	require.NoError(t, json.Unmarshal(features[0].Properties, &props))
	assert.Equal(t, "berlin", props["name"])
	assert.JSONEq(t, `{}`, string(features[2].Properties))
}

func TestIngestEmptyGeometryCollection(t *testing.T) {
	pipeline, mock := newPipeline(t)

	doc := `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"GeometryCollection","geometries":[]},"properties":{}}]}`
	summary, err := pipeline.Ingest(context.Background(), "collections.geojson", []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FeatureCount)

	// The persisted geometry must keep its geometries member: PostGIS
	// rejects a GeometryCollection without one.
	features := mock.Features[summary.DatasetID]
	require.Len(t, features, 1)
	assert.JSONEq(t, `{"type":"GeometryCollection","geometries":[]}`, string(features[0].Geometry))

	fc, err := mock.ExportGeoJSON(context.Background(), summary.DatasetID)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	exported, err := json.Marshal(fc.Features[0].Geometry)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"GeometryCollection","geometries":[]}`, string(exported))
}

func TestIngestEmptyCollection(t *testing.T) {
	pipeline, mock := newPipeline(t)

	summary, err := pipeline.Ingest(context.Background(), "empty.geojson", []byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)

	assert.Equal(t, 0, summary.FeatureCount)
	require.Len(t, mock.Datasets, 1)
	assert.Equal(t, 0, mock.Datasets[0].FeatureCount)
	assert.Nil(t, mock.Datasets[0].Bounds)
	assert.Equal(t, "Uploaded GeoJSON file with 0 features", mock.Datasets[0].Description)
}

func TestIngestDuplicateNamePrecheck(t *testing.T) {
	pipeline, mock := newPipeline(t)

	_, err := pipeline.Ingest(context.Background(), "cities.geojson", []byte(validDocument))
	require.NoError(t, err)

	// Same name through a different extension.
	_, err = pipeline.Ingest(context.Background(), "cities.json", []byte(validDocument))
	assert.Equal(t, apperr.DuplicateName, apperr.KindOf(err))

	// The first dataset is unaffected.
	require.Len(t, mock.Datasets, 1)
	assert.Equal(t, 3, mock.Datasets[0].FeatureCount)
}

func TestIngestDuplicateNameAtInsert(t *testing.T) {
	pipeline, mock := newPipeline(t)
	// Simulate a concurrent upload winning between the pre-check and the
	// insert: the store raises a unique violation.
	mock.FailCreate = gorm.ErrDuplicatedKey

	_, err := pipeline.Ingest(context.Background(), "cities.geojson", []byte(validDocument))
	assert.Equal(t, apperr.DuplicateName, apperr.KindOf(err))
	assert.Empty(t, mock.Datasets)
}

func TestIngestRollsBackOnInsertFailure(t *testing.T) {
	pipeline, mock := newPipeline(t)
	mock.FailBulkInsert = errors.New("connection reset")

	_, err := pipeline.Ingest(context.Background(), "cities.geojson", []byte(validDocument))
	assert.Equal(t, apperr.StoreFailure, apperr.KindOf(err))

	assert.Empty(t, mock.Datasets)
	assert.Empty(t, mock.Features)
}

func TestIngestRollsBackOnStatsFailure(t *testing.T) {
	pipeline, mock := newPipeline(t)
	mock.FailUpdateStats = errors.New("connection reset")

	_, err := pipeline.Ingest(context.Background(), "cities.geojson", []byte(validDocument))
	assert.Equal(t, apperr.StoreFailure, apperr.KindOf(err))

	assert.Empty(t, mock.Datasets)
}

func TestIngestNameCheckStoreFailure(t *testing.T) {
	pipeline, mock := newPipeline(t)
	mock.FailNameExists = errors.New("connection refused")

	_, err := pipeline.Ingest(context.Background(), "cities.geojson", []byte(validDocument))
	assert.Equal(t, apperr.StoreFailure, apperr.KindOf(err))
	assert.Zero(t, mock.CreateCalls)
}
