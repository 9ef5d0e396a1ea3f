package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Version The API version reported at /version
const Version = "v0.1.0"

// RegisterRoutes Mount the image, label set and session APIs on r
func RegisterRoutes(r *gin.Engine, db *gorm.DB, env *SessionEnv) {
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": Version,
		})
	})

	api := r.Group("/api")
	api.Use(JwtAuthMiddleware(env.Config.Auth.Secret))
	api.GET("/getLabelsets", GetLabelSets(env.Source))

	v1 := api.Group("/v1")
	{
		v1.GET("/images", FindImages(db))
		v1.POST("/images", CreateImage(db))
		v1.GET("/images/:id", FindImage(db))
		v1.PATCH("/images/:id", UpdateImage(db))
		v1.DELETE("/images/:id", DeleteImage(db))
		v1.GET("/metadata", GetImageMetadata(env.Source))
	}

	sessions := v1.Group("/sessions")
	{
		sessions.POST("", CreateSession(env))
		sessions.GET("/:id", FindSession(env))
		sessions.DELETE("/:id", CloseSession(env))
		sessions.GET("/:id/messages", GetSessionMessages(env))
		sessions.PUT("/:id/view", NavigateSession(env))
		sessions.POST("/:id/annotations", AddAnnotation(env))
		sessions.DELETE("/:id/annotations", RemoveAnnotation(env))
		sessions.PUT("/:id/selection", SelectAnnotation(env))
		sessions.PATCH("/:id/cells", EditCell(env))
		sessions.POST("/:id/save", SaveAnnotations(env))
	}
}
