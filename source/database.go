package source

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brainbox/models"
)

// Database The server data source: image metadata and label sets from the database
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// FetchImageMetadata Metadata of the image registered for url.
// An unknown url is a failed answer, not an error; errors are reserved for the database.
func (d *Database) FetchImageMetadata(ctx context.Context, url string) (*models.Image, error) {
	if url == "" {
		return models.FailedImage("no url given"), nil
	}
	image, err := models.FindImageBySource(d.db.WithContext(ctx), url)
	if errors.Is(err, models.ErrImageNotFound) {
		log.Debug(fmt.Sprintf("No image registered for %s", url))
		return models.FailedImage("not found"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch metadata of %s: %w", url, err)
	}
	return image, nil
}

// FetchLabelSets Every registered label set
func (d *Database) FetchLabelSets(ctx context.Context) ([]models.LabelSet, error) {
	return models.FindLabelSets(d.db.WithContext(ctx))
}

// SaveMetadata Persist info and its annotations
func (d *Database) SaveMetadata(ctx context.Context, info *models.Image) error {
	if info.ID == 0 {
		return errors.New("cannot save metadata of an unregistered image")
	}
	return models.SaveImage(d.db.WithContext(ctx), info)
}
