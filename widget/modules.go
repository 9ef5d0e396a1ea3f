package widget

import (
	"context"

	"brainbox/session"
)

// Module A capability attached to a Headless widget when loaded
type Module interface {
	Name() string
	Attach(ctx context.Context, w *Headless) error
}

// IOModule Gives the widget a place to save metadata
type IOModule struct {
	Saver MetadataSaver
}

func (IOModule) Name() string { return "io" }

func (m IOModule) Attach(ctx context.Context, w *Headless) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.saver = m.Saver
	return nil
}

// ViewModule Starts the widget on the default view, slice unset, read-only
type ViewModule struct{}

func (ViewModule) Name() string { return "view" }

func (ViewModule) Attach(ctx context.Context, w *Headless) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view = session.DefaultView
	w.slice = nil
	w.editMode = session.EditModeView
	return nil
}

// DefaultModules The modules a server widget is composed of
func DefaultModules(saver MetadataSaver) []Module {
	return []Module{ViewModule{}, IOModule{Saver: saver}}
}

var (
	_ session.Widget       = (*Headless)(nil)
	_ session.ModuleLoader = (*Headless)(nil)
)
