package appcontext

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/dataset"
)

type Context struct {
	DB     *gorm.DB
	Logger *zap.Logger

	Datasets *dataset.Service
}
