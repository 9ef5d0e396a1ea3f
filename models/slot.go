package models

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Slot A named value, the server-side counterpart of a browser local storage item
type Slot struct {
	Key   string `gorm:"primary_key"`
	Value string
}

// SlotStorage Key/value storage over the slots table
type SlotStorage struct {
	db *gorm.DB
}

func NewSlotStorage(db *gorm.DB) *SlotStorage {
	return &SlotStorage{db: db}
}

// GetItem Read the value stored under key
func (s *SlotStorage) GetItem(key string) (string, bool, error) {
	var slot Slot
	err := s.db.Where(&Slot{Key: key}).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return slot.Value, true, nil
}

// SetItem Store value under key, replacing what was there
func (s *SlotStorage) SetItem(key string, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Slot{Key: key, Value: value}).Error
}
