package models

import (
	"encoding/json"
	"fmt"
)

// Image The metadata of a source image: geometry and its ordered annotations.
// Success and Message are only set by a data source that could not provide the image.
type Image struct {
	ID     uint         `json:"id" gorm:"primary_key"`
	Source string       `json:"source" gorm:"uniqueIndex"`
	Name   string       `json:"name"`
	Path   string       `json:"-"`
	Vendor string       `json:"vendor,omitempty"`
	Dim    []int        `json:"dim" gorm:"serializer:json;type:text"`
	Pixdim []float64    `json:"pixdim" gorm:"serializer:json;type:text"`
	Atlas  []Annotation `json:"atlas" gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`

	Success *bool  `json:"success,omitempty" gorm:"-"`
	Message string `json:"message,omitempty" gorm:"-"`
}

// FailedImage The answer of a data source that could not provide an image
func FailedImage(message string) *Image {
	success := false
	return &Image{Success: &success, Message: message}
}

// Failed Whether the data source flagged this metadata as a failure
func (image *Image) Failed() bool {
	return image.Success != nil && !*image.Success
}

// ApplyJSON Replace the contents of image with the JSON document doc.
// Fields hidden from JSON (database keys, file path) are carried over, annotations by position.
func (image *Image) ApplyJSON(doc []byte) error {
	var fresh Image
	if err := json.Unmarshal(doc, &fresh); err != nil {
		return fmt.Errorf("apply metadata document: %w", err)
	}
	fresh.Path = image.Path
	for i := range fresh.Atlas {
		if i >= len(image.Atlas) {
			break
		}
		fresh.Atlas[i].ID = image.Atlas[i].ID
		fresh.Atlas[i].ImageID = image.Atlas[i].ImageID
		fresh.Atlas[i].Position = image.Atlas[i].Position
	}
	*image = fresh
	return nil
}
