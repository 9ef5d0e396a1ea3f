package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brainbox/models"
	"brainbox/source"
)

// FindImages Find all images with annotations
func FindImages(db *gorm.DB) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		var images []models.Image
		if err := db.Preload("Atlas").Find(&images).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": images})
	}
	return fn
}

type CreateImageInput struct {
	Source string    `json:"source" binding:"required"`
	Name   string    `json:"name"`
	Path   string    `json:"path"`
	Dim    []int     `json:"dim"`
	Pixdim []float64 `json:"pixdim"`
}

// probeFunc Reads image geometry; replaced in tests
var probeFunc = source.Probe

// CreateImage Register a new image. Geometry is probed from path when dim is not given.
func CreateImage(db *gorm.DB) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		var input CreateImageInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		image := models.Image{
			Source: input.Source,
			Name:   input.Name,
			Path:   input.Path,
			Dim:    input.Dim,
			Pixdim: input.Pixdim,
		}
		if len(image.Dim) == 0 {
			if input.Path == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "either dim or path is required"})
				return
			}
			geometry, err := probeFunc(input.Path)
			if err != nil {
				log.Info(fmt.Sprintf("Cannot probe %s: %s", input.Path, err.Error()))
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			image.Vendor = geometry.Vendor
			image.Dim = geometry.Dim
			image.Pixdim = geometry.Pixdim
		}
		log.Info(fmt.Sprintf("Registering %s with dim %v", image.Source, image.Dim))

		if err := models.SaveImage(db, &image); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": image})
	}
	return fn
}

// FindImage Find an image
func FindImage(db *gorm.DB) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		image, err := models.FindImageByID(db, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found!"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": image})
	}
	return fn
}

type UpdateImageInput struct {
	Name   string    `json:"name"`
	Dim    []int     `json:"dim"`
	Pixdim []float64 `json:"pixdim"`
}

// UpdateImage Update name and geometry of an image
func UpdateImage(db *gorm.DB) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		image, err := models.FindImageByID(db, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found!"})
			return
		}

		var input UpdateImageInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.Name != "" {
			image.Name = input.Name
		}
		if len(input.Dim) > 0 {
			image.Dim = input.Dim
		}
		if len(input.Pixdim) > 0 {
			image.Pixdim = input.Pixdim
		}
		if err := models.SaveImage(db, image); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": image})
	}
	return fn
}

// DeleteImage Delete an image
func DeleteImage(db *gorm.DB) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		image, err := models.FindImageByID(db, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found!"})
			return
		}
		if err := models.DeleteImage(db, image); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": true})
	}
	return fn
}

// GetImageMetadata Metadata of the image registered for ?url=, or a failed answer
func GetImageMetadata(src *source.Database) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		image, err := src.FetchImageMetadata(c.Request.Context(), c.Query("url"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if image.Failed() {
			c.JSON(http.StatusNotFound, image)
			return
		}
		c.JSON(http.StatusOK, image)
	}
	return fn
}

// GetLabelSets All label sets
func GetLabelSets(src *source.Database) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		labelSets, err := src.FetchLabelSets(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, labelSets)
	}
	return fn
}
