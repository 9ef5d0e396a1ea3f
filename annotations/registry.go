package annotations

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	uuid "github.com/twinj/uuid"

	"brainbox/models"
	"brainbox/utils"
)

// Collaborator The part of the rendering widget the registry talks to
type Collaborator interface {
	Configure(ctx context.Context, info *models.Image, index int) error
	SendSaveMetadataMessage(ctx context.Context, info *models.Image) error
	CurrentUser() string
}

// Registry Manages the ordered annotations of an image and their table rows
type Registry struct {
	widget      Collaborator
	table       Table
	binder      *Binder
	columns     Columns
	clock       clockwork.Clock
	newFilename func() string
	lastSaved   string
}

func NewRegistry(widget Collaborator, table Table, columns Columns, clock clockwork.Clock) *Registry {
	return &Registry{
		widget:      widget,
		table:       table,
		binder:      NewBinder(table, columns),
		columns:     columns,
		clock:       clock,
		newFilename: newFilename,
	}
}

// newFilename A random v4 UUID with the NIfTI suffix
func newFilename() string {
	return uuid.NewV4().String() + ".nii.gz"
}

// BindAll Render a fresh table for every annotation of info and select index
func (r *Registry) BindAll(info *models.Image, index int) error {
	r.table.Reset()
	r.binder.Reset()
	for i := range info.Atlas {
		r.table.AppendRow(len(r.columns))
		if err := r.binder.Bind(info, i); err != nil {
			return err
		}
	}
	if index >= 0 && index < len(info.Atlas) {
		r.table.Select(index)
	}
	return nil
}

// Create Append a new volume annotation owned by the current user, bind its row and save
func (r *Registry) Create(ctx context.Context, info *models.Image) (int, error) {
	log.Debug("Adding annotation")
	now := r.clock.Now().UTC()
	info.Atlas = append(info.Atlas, models.Annotation{
		Access:   models.AccessReadWrite,
		Created:  now,
		Modified: now,
		Filename: r.newFilename(),
		Labels:   models.DefaultLabels,
		Owner:    r.widget.CurrentUser(),
		Type:     models.AnnotationVolume,
	})

	index := len(info.Atlas) - 1
	r.table.AppendRow(len(r.columns))
	if err := r.binder.Bind(info, index); err != nil {
		return index, err
	}
	return index, r.Save(ctx, info)
}

// Remove Delete the annotation at index with its row and save.
// An index out of range is declined and reported as false.
func (r *Registry) Remove(ctx context.Context, info *models.Image, index int) (bool, error) {
	if index < 0 || index >= len(info.Atlas) || index >= r.table.Rows() {
		log.Debug(fmt.Sprintf("Ignoring removal of annotation %d of %d", index, len(info.Atlas)))
		return false, nil
	}

	if err := r.binder.Flush(info); err != nil {
		return false, err
	}
	if err := r.table.RemoveRow(index); err != nil {
		return false, err
	}
	r.binder.Unbind(index)
	info.Atlas = append(info.Atlas[:index], info.Atlas[index+1:]...)
	if err := r.binder.Rebind(info, index); err != nil {
		return true, err
	}
	return true, r.Save(ctx, info)
}

// Save Flush pending edits and ask the widget to persist the metadata
func (r *Registry) Save(ctx context.Context, info *models.Image) error {
	if err := r.binder.Flush(info); err != nil {
		return err
	}
	if err := r.widget.SendSaveMetadataMessage(ctx, info); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	r.lastSaved = utils.Fingerprint(info)
	log.Debug(fmt.Sprintf("Saved %d annotations of %s, fingerprint %s", len(info.Atlas), info.Source, r.lastSaved))
	return nil
}

// Select Make row the selected annotation and reconfigure the widget for it.
// Selecting the selected row or a row out of range is declined and reported as false.
func (r *Registry) Select(ctx context.Context, info *models.Image, row int) (bool, error) {
	if row < 0 || row >= len(info.Atlas) || row >= r.table.Rows() || row == r.table.Selected() {
		return false, nil
	}
	log.Debug(fmt.Sprintf("Changing selected annotation to %d", row))
	r.table.Select(row)
	if err := r.widget.Configure(ctx, info, row); err != nil {
		return true, err
	}
	return true, nil
}

// Edit Forward text typed into a cell to the binder
func (r *Registry) Edit(row int, col int, text string) error {
	return r.binder.Edit(row, col, text)
}

// Flush Write pending edits into info
func (r *Registry) Flush(info *models.Image) error {
	return r.binder.Flush(info)
}

// LastSaved Fingerprint of the metadata at the last save, empty before the first
func (r *Registry) LastSaved() string {
	return r.lastSaved
}

// Selected The selected row, -1 when none
func (r *Registry) Selected() int {
	return r.table.Selected()
}
