package models

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDataBase Open the sqlite database at filename and migrate the schema
func ConnectDataBase(filename string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(filename), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect sqlite database at %s: %w", filename, err)
	}
	log.Info(fmt.Sprintf("Connecting sqlite database at %s", filename))

	if err := db.AutoMigrate(&Image{}, &Annotation{}, &LabelSet{}, &Slot{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// ErrImageNotFound No image is registered for the requested source
var ErrImageNotFound = errors.New("image not found")

// FindImageBySource Load an image and its annotations, in table order
func FindImageBySource(db *gorm.DB, source string) (*Image, error) {
	var image Image
	err := db.Preload("Atlas", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position")
	}).Where("source = ?", source).First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// FindImageByID Load an image and its annotations by primary key
func FindImageByID(db *gorm.DB, id string) (*Image, error) {
	var image Image
	err := db.Preload("Atlas", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position")
	}).Where("id = ?", id).First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// SaveImage Write the image and replace its annotation rows with image.Atlas.
// Positions are rewritten so that the stored order is the slice order.
func SaveImage(db *gorm.DB, image *Image) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Atlas").Save(image).Error; err != nil {
			return err
		}
		if err := tx.Where("image_id = ?", image.ID).Delete(&Annotation{}).Error; err != nil {
			return err
		}
		if len(image.Atlas) == 0 {
			return nil
		}
		for i := range image.Atlas {
			image.Atlas[i].ID = 0
			image.Atlas[i].ImageID = image.ID
			image.Atlas[i].Position = i
		}
		return tx.Create(&image.Atlas).Error
	})
}

// DeleteImage Delete an image together with its annotations
func DeleteImage(db *gorm.DB, image *Image) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("image_id = ?", image.ID).Delete(&Annotation{}).Error; err != nil {
			return err
		}
		return tx.Delete(image).Error
	})
}

// FindLabelSets All label sets, by name
func FindLabelSets(db *gorm.DB) ([]LabelSet, error) {
	var labelSets []LabelSet
	if err := db.Order("name").Find(&labelSets).Error; err != nil {
		return nil, err
	}
	return labelSets, nil
}
