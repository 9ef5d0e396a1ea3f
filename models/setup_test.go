package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := ConnectDataBase(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestSaveAndFindImage(t *testing.T) {
	db := testDB(t)
	now := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	image := &Image{
		Source: "http://example.org/a.nii.gz",
		Path:   "/data/a.nii.gz",
		Dim:    []int{1, 2, 3},
		Pixdim: []float64{0.5, 0.5, 1},
		Atlas: []Annotation{
			{Name: "b", Owner: "alice", Type: AnnotationVolume, Created: now, Modified: now},
			{Name: "a", Owner: "bob", Type: AnnotationText, Created: now, Modified: now},
		},
	}
	require.NoError(t, SaveImage(db, image))
	require.NotZero(t, image.ID)

	found, err := FindImageBySource(db, image.Source)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, found.Dim)
	assert.Equal(t, []float64{0.5, 0.5, 1}, found.Pixdim)
	assert.Equal(t, "/data/a.nii.gz", found.Path)
	require.Len(t, found.Atlas, 2)
	assert.Equal(t, "b", found.Atlas[0].Name)
	assert.Equal(t, "a", found.Atlas[1].Name)

	// saving again replaces the annotation rows, keeping slice order
	found.Atlas = []Annotation{found.Atlas[1]}
	require.NoError(t, SaveImage(db, found))
	again, err := FindImageByID(db, fmt.Sprint(image.ID))
	require.NoError(t, err)
	require.Len(t, again.Atlas, 1)
	assert.Equal(t, "a", again.Atlas[0].Name)
	assert.Equal(t, 0, again.Atlas[0].Position)

	var count int64
	require.NoError(t, db.Model(&Annotation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFindImageNotFound(t *testing.T) {
	db := testDB(t)
	_, err := FindImageBySource(db, "nowhere")
	assert.ErrorIs(t, err, ErrImageNotFound)
	_, err = FindImageByID(db, "42")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestDeleteImage(t *testing.T) {
	db := testDB(t)
	image := &Image{Source: "s", Atlas: []Annotation{{Name: "x"}}}
	require.NoError(t, SaveImage(db, image))
	require.NoError(t, DeleteImage(db, image))

	_, err := FindImageBySource(db, "s")
	assert.ErrorIs(t, err, ErrImageNotFound)
	var count int64
	require.NoError(t, db.Model(&Annotation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFindLabelSets(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&LabelSet{Name: "foreground", Source: "/labels/foreground.json"}).Error)
	require.NoError(t, db.Create(&LabelSet{Name: "cerebrum", Source: "/labels/cerebrum.json"}).Error)

	labelSets, err := FindLabelSets(db)
	require.NoError(t, err)
	require.Len(t, labelSets, 2)
	assert.Equal(t, "cerebrum", labelSets[0].Name)
}

func TestSlotStorage(t *testing.T) {
	storage := NewSlotStorage(testDB(t))

	_, ok, err := storage.GetItem("AtlasMaker")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.SetItem("AtlasMaker", `{"version":1}`))
	require.NoError(t, storage.SetItem("AtlasMaker", `{"version":1,"history":[]}`))
	value, ok, err := storage.GetItem("AtlasMaker")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"version":1,"history":[]}`, value)
}

func TestApplyJSON(t *testing.T) {
	image := &Image{ID: 3, Source: "s", Path: "/p", Atlas: []Annotation{{ID: 9, ImageID: 3, Position: 0, Name: "old"}}}
	require.NoError(t, image.ApplyJSON([]byte(`{"id":3,"source":"s","atlas":[{"name":"new"},{"name":"added"}]}`)))

	assert.Equal(t, "/p", image.Path)
	require.Len(t, image.Atlas, 2)
	assert.Equal(t, "new", image.Atlas[0].Name)
	assert.Equal(t, uint(9), image.Atlas[0].ID)
	assert.Equal(t, uint(0), image.Atlas[1].ID)

	assert.Error(t, image.ApplyJSON([]byte("{")))
	assert.Equal(t, "/p", image.Path)
}

func TestFailedImage(t *testing.T) {
	assert.True(t, FailedImage("not found").Failed())
	assert.False(t, (&Image{}).Failed())
	yes := true
	assert.False(t, (&Image{Success: &yes}).Failed())
}
