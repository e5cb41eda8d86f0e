package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/appcontext"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/utils"
)

// GetHistory lists the user's recent uploads, most recent first, capped at
// the retention limit.
func GetHistory(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		datasets, err := ctx.Datasets.History(userID)
		if err != nil {
			respondServiceError(ctx, c, err)
			return
		}

		list := make([]gin.H, len(datasets))
		for i := range datasets {
			sum, err := ctx.Datasets.Summary(&datasets[i])
			if err != nil {
				respondServiceError(ctx, c, err)
				return
			}
			list[i] = gin.H{
				"id":          datasets[i].ID,
				"filename":    datasets[i].Filename,
				"uploaded_at": datasets[i].CreatedAt.UTC().Format(time.RFC3339),
				"summary":     summaryResponse(sum),
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"count":    len(list),
			"datasets": list,
		})
	}
}

func GetDataset(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, datasetID, ok := requestIDs(ctx, c)
		if !ok {
			return
		}

		ds, records, err := ctx.Datasets.Get(userID, datasetID)
		if err != nil {
			respondServiceError(ctx, c, err)
			return
		}

		sum, err := ctx.Datasets.Summary(ds)
		if err != nil {
			respondServiceError(ctx, c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"dataset_id":     ds.ID,
			"filename":       ds.Filename,
			"uploaded_at":    ds.CreatedAt.UTC().Format(time.RFC3339),
			"summary":        summaryResponse(sum),
			"equipment_list": equipmentListResponse(records),
		})
	}
}

func DeleteDataset(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, datasetID, ok := requestIDs(ctx, c)
		if !ok {
			return
		}

		if err := ctx.Datasets.Delete(userID, datasetID); err != nil {
			respondServiceError(ctx, c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Dataset deleted successfully"})
	}
}

// requestIDs extracts the authenticated user ID and the datasetID path
// parameter, writing the error response itself when either is unusable.
func requestIDs(ctx *appcontext.Context, c *gin.Context) (userID, datasetID uuid.UUID, ok bool) {
	userID, err := utils.GetUserIDFromClaims(c)
	if err != nil {
		ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}

	datasetID, err = uuid.Parse(c.Param("datasetID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset or equipment not found"})
		return uuid.Nil, uuid.Nil, false
	}

	return userID, datasetID, true
}
