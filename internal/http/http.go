package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Datolla/geospot-react/internal/appcontext"
	"github.com/Datolla/geospot-react/internal/http/middleware"
)

type APIService struct {
	engine  *gin.Engine
	context *appcontext.Context
}

func NewHTTPService(ctx *appcontext.Context) *APIService {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORSMiddleware(ctx.Config.Environment, ctx.Config.AllowedOrigins))

	service := &APIService{
		engine:  engine,
		context: ctx,
	}
	service.setupRoutes()
	return service
}

func (h *APIService) Engine() *gin.Engine {
	return h.engine
}

func (h *APIService) setupRoutes() {
	v1 := h.engine.Group("/api/v1")
	v1.GET("/health", HealthCheck(h.context))
	h.setupDatasetRoutes(v1)

	h.engine.Static("/static", "./static")
	h.engine.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})
}

func (h *APIService) setupDatasetRoutes(group *gin.RouterGroup) {
	datasets := group.Group("/datasets")

	datasets.POST("/upload", UploadDataset(h.context))
	datasets.GET("", ListDatasets(h.context))
	datasets.GET("/:datasetID", GetDataset(h.context))
	datasets.DELETE("/:datasetID", DeleteDataset(h.context))
	datasets.GET("/:datasetID/geojson", ExportDatasetGeoJSON(h.context))
}
