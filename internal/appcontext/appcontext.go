package appcontext

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Datolla/geospot-react/internal/ingest"
	"github.com/Datolla/geospot-react/internal/store"
)

// Config carries the tunables the server and its components are constructed
// with. There is no ambient configuration state beyond this struct.
type Config struct {
	Port            string
	Environment     string
	AllowedOrigins  []string
	MaxUploadBytes  int64
	MaxPageSize     int
	DefaultPageSize int
}

type Context struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Config Config

	Store    store.DatasetStore
	Pipeline *ingest.Pipeline
}
