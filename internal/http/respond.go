package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/appcontext"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/dataset"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/entity"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/summary"
)

// respondServiceError maps domain errors to HTTP statuses. Anything
// unrecognized is a 500 and gets logged.
func respondServiceError(ctx *appcontext.Context, c *gin.Context, err error) {
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset or equipment not found"})
	case errors.Is(err, dataset.ErrInvalidField):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Flowrate, pressure and temperature must be finite numbers"})
	case errors.Is(err, dataset.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must not be after end_date"})
	case errors.Is(err, dataset.ErrLastRecord):
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot delete the last equipment record of a dataset"})
	case errors.Is(err, summary.ErrEmptyDataset):
		c.JSON(http.StatusConflict, gin.H{"error": "Dataset has no records"})
	default:
		ctx.Logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func summaryResponse(sum summary.Summary) gin.H {
	rounded := sum.Rounded()
	dist := rounded.TypeDistribution
	if dist == nil {
		dist = []summary.TypeCount{}
	}
	return gin.H{
		"total_equipment":   rounded.Total,
		"avg_flowrate":      rounded.AvgFlowrate,
		"avg_pressure":      rounded.AvgPressure,
		"avg_temperature":   rounded.AvgTemperature,
		"type_distribution": dist,
	}
}

func equipmentResponse(eq entity.Equipment) gin.H {
	return gin.H{
		"id":          eq.ID,
		"name":        eq.Name,
		"type":        eq.EquipmentType,
		"flowrate":    summary.Round2(eq.Flowrate),
		"pressure":    summary.Round2(eq.Pressure),
		"temperature": summary.Round2(eq.Temperature),
		"recorded_at": eq.RecordedAt.UTC().Format(time.RFC3339),
	}
}

func equipmentListResponse(records []entity.Equipment) []gin.H {
	list := make([]gin.H, len(records))
	for i, eq := range records {
		list[i] = equipmentResponse(eq)
	}
	return list
}
