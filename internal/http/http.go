package http

import (
	"github.com/gin-gonic/gin"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/appcontext"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/http/middleware"
)

type APIService struct {
	engine  *gin.Engine
	context *appcontext.Context
}

func NewHTTPService(ctx *appcontext.Context) *APIService {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORSMiddleware())

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
	h.setupAuthRoutes(v1)
	h.setupUploadRoutes(v1)
	h.setupDatasetRoutes(v1)
}

func (h *APIService) setupAuthRoutes(group *gin.RouterGroup) {
	auth := group.Group("/auth")

	auth.POST("/register", Register(h.context))
	auth.POST("/login", Login(h.context))
	auth.POST("/logout", Logout(h.context))
	auth.GET("/me", middleware.JWTAuthMiddleware(), GetUserInfo(h.context))
}

func (h *APIService) setupUploadRoutes(group *gin.RouterGroup) {
	group.POST("/upload", middleware.JWTAuthMiddleware(), Upload(h.context))
}

func (h *APIService) setupDatasetRoutes(group *gin.RouterGroup) {
	datasets := group.Group("/datasets")
	datasets.Use(middleware.JWTAuthMiddleware())

	datasets.GET("", GetHistory(h.context))
	datasets.GET("/:datasetID", GetDataset(h.context))
	datasets.DELETE("/:datasetID", DeleteDataset(h.context))
	datasets.GET("/:datasetID/report", ExportReport(h.context))
	datasets.GET("/:datasetID/csv", ExportCSV(h.context))

	datasets.GET("/:datasetID/equipment", ListEquipment(h.context))
	datasets.POST("/:datasetID/equipment", AddEquipment(h.context))
	datasets.PUT("/:datasetID/equipment/:equipmentID", UpdateEquipment(h.context))
	datasets.DELETE("/:datasetID/equipment/:equipmentID", DeleteEquipment(h.context))
}
