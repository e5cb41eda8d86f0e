package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/appcontext"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/dataset"
)

// equipmentRequest accepts both "type" and "equipment_type" for the same
// concept; the domain only ever sees the canonical field.
type equipmentRequest struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	EquipmentType string   `json:"equipment_type"`
	Flowrate      *float64 `json:"flowrate" binding:"required"`
	Pressure      *float64 `json:"pressure" binding:"required"`
	Temperature   *float64 `json:"temperature" binding:"required"`
}

func (r equipmentRequest) fields() dataset.Fields {
	equipmentType := r.Type
	if equipmentType == "" {
		equipmentType = r.EquipmentType
	}
	return dataset.Fields{
		Name:          r.Name,
		EquipmentType: equipmentType,
		Flowrate:      *r.Flowrate,
		Pressure:      *r.Pressure,
		Temperature:   *r.Temperature,
	}
}

// ListEquipment returns the dataset's records, optionally filtered by an
// inclusive recorded-at date range.
func ListEquipment(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, datasetID, ok := requestIDs(ctx, c)
		if !ok {
			return
		}

		start, err := parseDateParam(c.Query("start_date"), false)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		end, err := parseDateParam(c.Query("end_date"), true)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		records, err := ctx.Datasets.ListEquipment(userID, datasetID, start, end)
		if err != nil {
			respondServiceError(ctx, c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"count":          len(records),
			"equipment_list": equipmentListResponse(records),
		})
	}
}

func AddEquipment(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, datasetID, ok := requestIDs(ctx, c)
		if !ok {
			return
		}

		var request equipmentRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Flowrate, pressure and temperature are required numeric fields"})
			return
		}

		eq, err := ctx.Datasets.AddEquipment(userID, datasetID, request.fields())
		if err != nil {
			respondServiceError(ctx, c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message":   "Equipment added successfully",
			"equipment": equipmentResponse(*eq),
		})
	}
}

func UpdateEquipment(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, datasetID, ok := requestIDs(ctx, c)
		if !ok {
			return
		}

		equipmentID, err := uuid.Parse(c.Param("equipmentID"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dataset or equipment not found"})
			return
		}

		var request equipmentRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Flowrate, pressure and temperature are required numeric fields"})
			return
		}

		eq, err := ctx.Datasets.UpdateEquipment(userID, datasetID, equipmentID, request.fields())
		if err != nil {
			respondServiceError(ctx, c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "Equipment updated successfully",
			"equipment": equipmentResponse(*eq),
		})
	}
}

func DeleteEquipment(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, datasetID, ok := requestIDs(ctx, c)
		if !ok {
			return
		}

		equipmentID, err := uuid.Parse(c.Param("equipmentID"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dataset or equipment not found"})
			return
		}

		if err := ctx.Datasets.DeleteEquipment(userID, datasetID, equipmentID); err != nil {
			respondServiceError(ctx, c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Equipment deleted successfully"})
	}
}

// parseDateParam accepts RFC 3339 timestamps or plain dates. A plain end date
// is pushed to the end of its day so the range stays inclusive.
func parseDateParam(raw string, isEnd bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}

	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", raw)
	}
	if isEnd {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
