package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/appcontext"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/export"
)

// ExportReport returns the export payload for the document-rendering
// collaborator. The server does not render the PDF itself; it guarantees that
// the payload matches the delimited export byte for byte.
func ExportReport(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, ok := assemblePayload(ctx, c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, payload)
	}
}

// ExportCSV renders the export payload as a downloadable delimited table.
func ExportCSV(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, ok := assemblePayload(ctx, c)
		if !ok {
			return
		}

		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, payload); err != nil {
			ctx.Logger.Error("Failed to render CSV export", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render CSV export"})
			return
		}

		filename := fmt.Sprintf("equipment_export_%s.csv", payload.DatasetID)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	}
}

func assemblePayload(ctx *appcontext.Context, c *gin.Context) (*export.Payload, bool) {
	userID, datasetID, ok := requestIDs(ctx, c)
	if !ok {
		return nil, false
	}

	ds, records, err := ctx.Datasets.Get(userID, datasetID)
	if err != nil {
		respondServiceError(ctx, c, err)
		return nil, false
	}

	payload, err := export.Assemble(ds, records)
	if err != nil {
		respondServiceError(ctx, c, err)
		return nil, false
	}
	return payload, true
}
