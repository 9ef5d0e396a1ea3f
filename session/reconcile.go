package session

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"brainbox/models"
)

type EditMode int

const (
	EditModeView EditMode = iota
	EditModeEdit
)

// Overrides What the caller asked for when opening an image
type Overrides struct {
	URL             string `json:"url"`
	View            string `json:"view,omitempty"`
	Slice           *int   `json:"slice,omitempty"`
	Fullscreen      *bool  `json:"fullscreen,omitempty"`
	AnnotationIndex int    `json:"annotationItemIndex"`
}

// ResolvedConfig The effective settings handed to the widget.
// An empty View or nil Slice is unset; the widget then picks its default view or middle slice.
type ResolvedConfig struct {
	View            string    `json:"view,omitempty"`
	Slice           *int      `json:"slice"`
	Fullscreen      bool      `json:"fullscreen"`
	EditMode        EditMode  `json:"editMode"`
	Dim             []int     `json:"dim"`
	Pixdim          []float64 `json:"pixdim"`
	AnnotationIndex int       `json:"annotationItemIndex"`
}

// Reconciler Merges stored history, server metadata and overrides
type Reconciler struct {
	messages MessageLog
}

func NewReconciler(messages MessageLog) *Reconciler {
	return &Reconciler{messages: messages}
}

// Reconcile Resolve the configuration of an edit session on metadata.
// Precedence, lowest first: nothing, stored history for overrides.URL, overrides.
// A view override unsets the slice. Geometry always comes from metadata.
func (r *Reconciler) Reconcile(metadata *models.Image, overrides Overrides, history *Envelope) (*ResolvedConfig, error) {
	if metadata == nil {
		metadata = models.FailedImage("no metadata received")
	}
	if metadata.Failed() {
		r.messages.Append("ERROR: " + metadata.Message + ".")
		log.Warn(fmt.Sprintf("Cannot configure %s: %s", overrides.URL, metadata.Message))
		return nil, &SourceDataError{Message: metadata.Message}
	}

	config := &ResolvedConfig{
		Dim:    metadata.Dim,
		Pixdim: metadata.Pixdim,
	}

	if entry, ok := history.Lookup(overrides.URL); ok {
		config.View = strings.ToLower(entry.View)
		config.Slice = entry.Slice
	}
	if view := strings.ToLower(overrides.View); view != "" {
		config.View = view
		config.Slice = nil
	}
	if overrides.Slice != nil {
		slice := *overrides.Slice
		config.Slice = &slice
	}
	if overrides.Fullscreen != nil {
		config.Fullscreen = *overrides.Fullscreen
	}
	config.EditMode = EditModeEdit

	config.AnnotationIndex = overrides.AnnotationIndex
	if config.AnnotationIndex < 0 || (config.AnnotationIndex > 0 && config.AnnotationIndex >= len(metadata.Atlas)) {
		log.Debug(fmt.Sprintf("Annotation index %d out of range for %d annotations, selecting 0", config.AnnotationIndex, len(metadata.Atlas)))
		config.AnnotationIndex = 0
	}
	return config, nil
}
