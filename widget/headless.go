package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"brainbox/models"
	"brainbox/session"
)

// MetadataSaver Persists the metadata of an image
type MetadataSaver interface {
	SaveMetadata(ctx context.Context, info *models.Image) error
}

var (
	ErrNotInitialized = errors.New("widget is not initialized")
	ErrNoSaver        = errors.New("no module provides metadata saving")
	ErrUnknownModule  = errors.New("unknown widget module")
)

// Headless A rendering widget without a display: it keeps the view state a
// browser widget would keep and sends save requests to a MetadataSaver.
// Capabilities are attached by modules during loading.
type Headless struct {
	mu        sync.RWMutex
	user      string
	available map[string]Module
	loaded    map[string]bool
	ready     chan struct{}
	readyOnce sync.Once

	saver      MetadataSaver
	view       string
	slice      *int
	fullscreen bool
	editMode   session.EditMode
	info       *models.Image
	index      int
	saves      int
}

// NewHeadless Create a widget for user that can load the given modules
func NewHeadless(user string, modules ...Module) *Headless {
	available := make(map[string]Module, len(modules))
	for _, m := range modules {
		available[m.Name()] = m
	}
	return &Headless{
		user:      user,
		available: available,
		loaded:    make(map[string]bool),
		ready:     make(chan struct{}),
	}
}

// LoadModule Attach the module registered under id
func (w *Headless) LoadModule(ctx context.Context, id string) error {
	w.mu.RLock()
	m, ok := w.available[id]
	done := w.loaded[id]
	w.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}
	if done {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.Attach(ctx, w); err != nil {
		return err
	}

	w.mu.Lock()
	w.loaded[id] = true
	w.mu.Unlock()
	log.Debug(fmt.Sprintf("Widget module %s loaded", id))
	return nil
}

// Init Check the loaded capabilities and signal readiness
func (w *Headless) Init(ctx context.Context) error {
	w.mu.RLock()
	saver := w.saver
	w.mu.RUnlock()
	if saver == nil {
		return ErrNoSaver
	}
	w.readyOnce.Do(func() { close(w.ready) })
	return w.Ready(ctx)
}

// Ready Block until the widget is initialized or ctx is done
func (w *Headless) Ready(ctx context.Context) error {
	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Headless) isReady() bool {
	select {
	case <-w.ready:
		return true
	default:
		return false
	}
}

// Enact Take over the view settings of a resolved configuration
func (w *Headless) Enact(config session.ResolvedConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view = strings.ToLower(config.View)
	w.slice = config.Slice
	w.fullscreen = config.Fullscreen
	w.editMode = config.EditMode
}

// Configure Show annotation index of info. An unset slice becomes the middle slice of the view.
func (w *Headless) Configure(ctx context.Context, info *models.Image, index int) error {
	if !w.isReady() {
		return ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.info = info
	w.index = index
	if w.view == "" {
		w.view = session.DefaultView
	}
	if w.slice == nil {
		middle := middleSlice(info.Dim, w.view)
		w.slice = &middle
	}
	return nil
}

// middleSlice The middle slice along the axis a view looks down
func middleSlice(dim []int, view string) int {
	axis := map[string]int{"sag": 0, "cor": 1, "axi": 2}[strings.ToLower(view)]
	if axis >= len(dim) {
		return 0
	}
	return dim[axis] / 2
}

// SendSaveMetadataMessage Hand info to the attached saver
func (w *Headless) SendSaveMetadataMessage(ctx context.Context, info *models.Image) error {
	w.mu.Lock()
	saver := w.saver
	w.saves++
	w.mu.Unlock()
	if saver == nil {
		return ErrNoSaver
	}
	return saver.SaveMetadata(ctx, info)
}

func (w *Headless) CurrentUser() string {
	return w.user
}

func (w *Headless) CurrentView() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.view
}

func (w *Headless) CurrentSlice() *int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.slice == nil {
		return nil
	}
	slice := *w.slice
	return &slice
}

// Navigate Move to view and slice, as a user would with the view buttons and slider
func (w *Headless) Navigate(view string, slice int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view = strings.ToLower(view)
	w.slice = &slice
}

// State The view state of the widget
type State struct {
	View       string           `json:"view"`
	Slice      *int             `json:"slice"`
	Fullscreen bool             `json:"fullscreen"`
	EditMode   session.EditMode `json:"editMode"`
	Index      int              `json:"annotationItemIndex"`
	Saves      int              `json:"saves"`
}

func (w *Headless) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	state := State{
		View:       w.view,
		Fullscreen: w.fullscreen,
		EditMode:   w.editMode,
		Index:      w.index,
		Saves:      w.saves,
	}
	if w.slice != nil {
		slice := *w.slice
		state.Slice = &slice
	}
	return state
}
