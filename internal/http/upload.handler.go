package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Datolla/geospot-react/internal/appcontext"
)

func UploadDataset(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			ctx.Logger.Error("Failed to get file from request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get file from request"})
			return
		}

		src, err := file.Open()
		if err != nil {
			ctx.Logger.Error("Failed to open uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			ctx.Logger.Error("Failed to read uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
			return
		}

		summary, err := ctx.Pipeline.Ingest(c.Request.Context(), file.Filename, data)
		if err != nil {
			ctx.Logger.Error("Failed to ingest dataset", zap.String("file", file.Filename), zap.Error(err))
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "Dataset uploaded successfully", "dataset": summary})
	}
}
