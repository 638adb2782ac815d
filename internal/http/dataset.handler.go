package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Datolla/geospot-react/internal/appcontext"
)

func ListDatasets(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		skip, err := queryInt(c, "skip", 0)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid skip parameter"})
			return
		}
		limit, err := queryInt(c, "limit", ctx.Config.DefaultPageSize)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		if limit > ctx.Config.MaxPageSize {
			limit = ctx.Config.MaxPageSize
		}

		datasets, total, err := ctx.Store.ListDatasets(c.Request.Context(), skip, limit)
		if err != nil {
			ctx.Logger.Error("Failed to list datasets", zap.Error(err))
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"datasets": datasets, "total": total, "skip": skip, "limit": limit})
	}
}

func GetDataset(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("datasetID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dataset ID"})
			return
		}

		dataset, err := ctx.Store.GetDataset(c.Request.Context(), id)
		if err != nil {
			ctx.Logger.Error("Failed to get dataset", zap.String("dataset_id", id.String()), zap.Error(err))
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"dataset": dataset})
	}
}

func DeleteDataset(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("datasetID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dataset ID"})
			return
		}

		deletedID, err := ctx.Store.DeleteDataset(c.Request.Context(), id)
		if err != nil {
			ctx.Logger.Error("Failed to delete dataset", zap.String("dataset_id", id.String()), zap.Error(err))
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Dataset deleted successfully", "dataset_id": deletedID})
	}
}

func ExportDatasetGeoJSON(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("datasetID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dataset ID"})
			return
		}

		fc, err := ctx.Store.ExportGeoJSON(c.Request.Context(), id)
		if err != nil {
			ctx.Logger.Error("Failed to export dataset", zap.String("dataset_id", id.String()), zap.Error(err))
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, fc)
	}
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, strconv.ErrSyntax
	}
	return value, nil
}
