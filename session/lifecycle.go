package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"brainbox/annotations"
	"brainbox/models"
)

// Widget The rendering collaborator a session drives
type Widget interface {
	annotations.Collaborator
	Init(ctx context.Context) error
	Enact(config ResolvedConfig)
	CurrentView() string
	CurrentSlice() *int
}

// ModuleLoader Makes the named widget module available
type ModuleLoader interface {
	LoadModule(ctx context.Context, id string) error
}

// DefaultView The view recorded when the widget has none
const DefaultView = "sag"

// lastVisitedLayout Millisecond UTC timestamps, as browsers serialize dates
const lastVisitedLayout = "2006-01-02T15:04:05.000Z"

type state int

const (
	stateNew state = iota
	stateReady
	stateConfigured
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateNew:
		return "new"
	case stateReady:
		return "ready"
	case stateConfigured:
		return "configured"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

type Options struct {
	ID      string
	User    string
	Widget  Widget
	Loader  ModuleLoader
	Modules []string
	Store   *Store
	Table   annotations.Table
	Columns annotations.Columns
	Clock   clockwork.Clock
}

// Session Owns the metadata of the open image and everything derived from it.
// Operations are serialized; configuration requires Init, annotation operations require configuration.
type Session struct {
	ID   string
	User string

	mu         sync.Mutex
	state      state
	info       *models.Image
	config     *ResolvedConfig
	widget     Widget
	loader     ModuleLoader
	modules    []string
	store      *Store
	table      annotations.Table
	registry   *annotations.Registry
	reconciler *Reconciler
	messages   *Messages
	clock      clockwork.Clock
}

func New(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Table == nil {
		opts.Table = annotations.NewMemoryTable()
	}
	messages := &Messages{}
	return &Session{
		ID:         opts.ID,
		User:       opts.User,
		widget:     opts.Widget,
		loader:     opts.Loader,
		modules:    opts.Modules,
		store:      opts.Store,
		table:      opts.Table,
		registry:   annotations.NewRegistry(opts.Widget, opts.Table, opts.Columns, opts.Clock),
		reconciler: NewReconciler(messages),
		messages:   messages,
		clock:      opts.Clock,
	}
}

// Init Load every widget module, then initialize the widget.
// Returns once the widget reports ready.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateClosed:
		return ErrClosed
	case stateReady, stateConfigured:
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range s.modules {
		id := id
		g.Go(func() error {
			if err := s.loader.LoadModule(gctx, id); err != nil {
				return fmt.Errorf("load module %s: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.widget.Init(ctx); err != nil {
		return fmt.Errorf("init widget: %w", err)
	}
	s.state = stateReady
	log.Debug(fmt.Sprintf("Session %s ready with modules %v", s.ID, s.modules))
	return nil
}

// Configure Open metadata in the widget with the configuration reconciled from history and overrides.
// A SourceDataError leaves the session as it was.
func (s *Session) Configure(ctx context.Context, metadata *models.Image, overrides Overrides) (*ResolvedConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateClosed:
		return nil, ErrClosed
	case stateNew:
		return nil, ErrNotReady
	}

	s.messages.Append("Downloading from source to server...")
	if overrides.URL == "" && metadata != nil {
		overrides.URL = metadata.Source
	}
	history, _ := s.store.Load()
	config, err := s.reconciler.Reconcile(metadata, overrides, history)
	if err != nil {
		return nil, err
	}
	s.messages.Append("Downloading from server...")

	if s.state == stateConfigured && s.info.Source != metadata.Source {
		if err := s.remember(); err != nil {
			log.Warn(fmt.Sprintf("Cannot record history of %s: %s", s.info.Source, err.Error()))
		}
	}

	view, slice := s.widget.CurrentView(), s.widget.CurrentSlice()
	s.widget.Enact(*config)
	if err := s.widget.Configure(ctx, metadata, config.AnnotationIndex); err != nil {
		s.restore(ctx, view, slice)
		return nil, fmt.Errorf("configure widget: %w", err)
	}
	if err := s.registry.BindAll(metadata, config.AnnotationIndex); err != nil {
		s.restore(ctx, view, slice)
		return nil, err
	}

	s.info = metadata
	s.config = config
	s.state = stateConfigured
	log.Info(fmt.Sprintf("Session %s configured on %s", s.ID, metadata.Source))
	return config, nil
}

// restore Put the widget and the table back on the image the session had open
// before a failed Configure.
func (s *Session) restore(ctx context.Context, view string, slice *int) {
	config := ResolvedConfig{View: view, Slice: slice}
	if s.config != nil {
		config = *s.config
		config.View = view
		config.Slice = slice
	}
	s.widget.Enact(config)

	info, index := &models.Image{}, 0
	if s.state == stateConfigured {
		info, index = s.info, s.config.AnnotationIndex
		if err := s.widget.Configure(ctx, info, index); err != nil {
			log.Warn(fmt.Sprintf("Cannot restore %s in session %s: %s", info.Source, s.ID, err.Error()))
		}
	}
	if err := s.registry.BindAll(info, index); err != nil {
		log.Warn(fmt.Sprintf("Cannot rebind annotations in session %s: %s", s.ID, err.Error()))
	}
}

// Teardown Record the current view and slice of the open image in the session history and close.
// Runs to completion synchronously.
func (s *Session) Teardown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateClosed {
		return nil
	}
	var err error
	if s.state == stateConfigured {
		err = s.remember()
	}
	s.state = stateClosed
	log.Info(fmt.Sprintf("Session %s closed", s.ID))
	return err
}

func (s *Session) remember() error {
	view := strings.ToLower(s.widget.CurrentView())
	if view == "" {
		view = DefaultView
	}
	slice := 0
	if current := s.widget.CurrentSlice(); current != nil {
		slice = *current
	}
	return s.store.Remember(HistoryEntry{
		URL:         s.info.Source,
		View:        view,
		Slice:       &slice,
		LastVisited: s.clock.Now().UTC().Format(lastVisitedLayout),
	})
}

func (s *Session) configured() error {
	switch s.state {
	case stateClosed:
		return ErrClosed
	case stateConfigured:
		return nil
	}
	return ErrNotConfigured
}

// AddAnnotation Create a new annotation on the open image
func (s *Session) AddAnnotation(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.configured(); err != nil {
		return -1, err
	}
	return s.registry.Create(ctx, s.info)
}

// RemoveAnnotation Remove the annotation at index; false when index is out of range
func (s *Session) RemoveAnnotation(ctx context.Context, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.configured(); err != nil {
		return false, err
	}
	return s.registry.Remove(ctx, s.info, index)
}

// RemoveSelectedAnnotation Remove the annotation of the selected row; false when none is selected
func (s *Session) RemoveSelectedAnnotation(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.configured(); err != nil {
		return false, err
	}
	return s.registry.Remove(ctx, s.info, s.registry.Selected())
}

// SelectAnnotation Select the annotation at row; false when declined
func (s *Session) SelectAnnotation(ctx context.Context, row int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.configured(); err != nil {
		return false, err
	}
	return s.registry.Select(ctx, s.info, row)
}

// EditCell Type text into a table cell
func (s *Session) EditCell(row int, col int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.configured(); err != nil {
		return err
	}
	return s.registry.Edit(row, col, text)
}

// SaveAnnotations Flush edits and persist the metadata
func (s *Session) SaveAnnotations(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.configured(); err != nil {
		return err
	}
	return s.registry.Save(ctx, s.info)
}

// Snapshot A point-in-time view of a session
type Snapshot struct {
	ID          string          `json:"id"`
	User        string          `json:"user"`
	State       string          `json:"state"`
	Config      *ResolvedConfig `json:"config,omitempty"`
	Info        *models.Image   `json:"info,omitempty"`
	Selected    int             `json:"selected"`
	Table       [][]string      `json:"table,omitempty"`
	Messages    []string        `json:"messages"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

// Snapshot Flush pending edits and describe the session
func (s *Session) Snapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := &Snapshot{
		ID:          s.ID,
		User:        s.User,
		State:       s.state.String(),
		Config:      s.config,
		Selected:    s.table.Selected(),
		Messages:    s.messages.Lines(),
		Fingerprint: s.registry.LastSaved(),
	}
	if s.state == stateConfigured {
		if err := s.registry.Flush(s.info); err != nil {
			return nil, err
		}
		info := *s.info
		info.Atlas = append([]models.Annotation(nil), s.info.Atlas...)
		snapshot.Info = &info
	}
	if table, ok := s.table.(*annotations.MemoryTable); ok {
		snapshot.Table = table.Cells()
	}
	return snapshot, nil
}

// Messages Lines appended to the diagnostic log
func (s *Session) Messages() []string {
	return s.messages.Lines()
}

type navigator interface {
	Navigate(view string, slice int)
}

// Navigate Move the widget to view and slice
func (s *Session) Navigate(view string, slice int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.configured(); err != nil {
		return err
	}
	n, ok := s.widget.(navigator)
	if !ok {
		return ErrCannotNavigate
	}
	n.Navigate(strings.ToLower(view), slice)
	return nil
}
