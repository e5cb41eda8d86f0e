package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/appcontext"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/entity"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/utils"
)

func Register(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type RegisterRequest struct {
			Username string `json:"username" binding:"required,min=3,max=100"`
			Email    string `json:"email"`
			Password string `json:"password" binding:"required,min=6"`
		}

		var request RegisterRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username (min 3 chars) and password (min 6 chars) are required"})
			return
		}

		var existing entity.User
		if err := ctx.DB.Where("username = ?", request.Username).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username is already taken"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
		if err != nil {
			ctx.Logger.Error("Failed to hash password", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
			return
		}

		user := entity.User{
			Username:     request.Username,
			Email:        request.Email,
			PasswordHash: string(hash),
		}
		if err := ctx.DB.Create(&user).Error; err != nil {
			ctx.Logger.Error("Failed to create user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
			return
		}

		tokenString, err := utils.GenerateJWT(user.ID.String())
		if err != nil {
			ctx.Logger.Error("Failed to generate JWT token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "User registered successfully",
			"user":    user,
			"token":   tokenString,
		})
	}
}

func Login(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type LoginRequest struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}

		var request LoginRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide both username and password"})
			return
		}

		var user entity.User
		err := ctx.DB.Where("username = ?", request.Username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found. Please sign up first to create an account."})
			return
		}
		if err != nil {
			ctx.Logger.Error("Failed to look up user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password. Please try again."})
			return
		}

		tokenString, err := utils.GenerateJWT(user.ID.String())
		if err != nil {
			ctx.Logger.Error("Failed to generate JWT token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"user":    user,
			"token":   tokenString,
		})
	}
}

func Logout(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie("token", "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
	}
}

func GetUserInfo(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var user entity.User
		if err := ctx.DB.First(&user, "id = ?", userID).Error; err != nil {
			ctx.Logger.Error("Failed to find user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find user"})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}
