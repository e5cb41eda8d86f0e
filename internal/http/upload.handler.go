package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/appcontext"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/ingest"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/utils"
)

// Upload ingests a CSV of equipment parameter records. Rows with unparseable
// numbers are skipped and reported; a missing required column or a file with
// zero usable rows aborts the upload entirely.
func Upload(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
			return
		}

		if !isCSVFile(file) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File must be a CSV"})
			return
		}

		src, err := file.Open()
		if err != nil {
			ctx.Logger.Error("Failed to open uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
			return
		}
		defer src.Close()

		result, err := ingest.Parse(src)
		if err != nil {
			var vErr *ingest.ValidationError
			if errors.As(err, &vErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
				return
			}
			ctx.Logger.Error("Failed to parse uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing file"})
			return
		}

		ds, err := ctx.Datasets.Ingest(userID, file.Filename, result.Records)
		if err != nil {
			respondServiceError(ctx, c, err)
			return
		}

		ds, records, err := ctx.Datasets.Get(userID, ds.ID)
		if err != nil {
			respondServiceError(ctx, c, err)
			return
		}

		sum, err := ctx.Datasets.Summary(ds)
		if err != nil {
			respondServiceError(ctx, c, err)
			return
		}

		skipped := result.RowErrors
		if skipped == nil {
			skipped = []ingest.RowError{}
		}
		warnings := result.Warnings
		if warnings == nil {
			warnings = []ingest.RowWarning{}
		}

		c.JSON(http.StatusCreated, gin.H{
			"message":        "File uploaded successfully",
			"dataset_id":     ds.ID,
			"filename":       ds.Filename,
			"summary":        summaryResponse(sum),
			"equipment_list": equipmentListResponse(records),
			"skipped_rows":   skipped,
			"warnings":       warnings,
		})
	}
}

func isCSVFile(file *multipart.FileHeader) bool {
	return strings.ToLower(filepath.Ext(file.Filename)) == ".csv"
}
