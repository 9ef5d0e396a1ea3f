package widget

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainbox/models"
	"brainbox/session"
)

type recordingSaver struct {
	saved []*models.Image
	err   error
}

func (s *recordingSaver) SaveMetadata(ctx context.Context, info *models.Image) error {
	s.saved = append(s.saved, info)
	return s.err
}

func loadedWidget(t *testing.T, saver MetadataSaver) *Headless {
	t.Helper()
	w := NewHeadless("alice", DefaultModules(saver)...)
	ctx := context.Background()
	require.NoError(t, w.LoadModule(ctx, "view"))
	require.NoError(t, w.LoadModule(ctx, "io"))
	require.NoError(t, w.Init(ctx))
	return w
}

func TestLoadModule(t *testing.T) {
	w := NewHeadless("alice", DefaultModules(&recordingSaver{})...)
	ctx := context.Background()

	assert.ErrorIs(t, w.LoadModule(ctx, "paint"), ErrUnknownModule)
	assert.ErrorIs(t, w.Init(ctx), ErrNoSaver)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, w.LoadModule(cancelled, "io"), context.Canceled)

	require.NoError(t, w.LoadModule(ctx, "io"))
	require.NoError(t, w.LoadModule(ctx, "io"))
	require.NoError(t, w.Init(ctx))
	require.NoError(t, w.Ready(ctx))
}

func TestConfigureBeforeInit(t *testing.T) {
	w := NewHeadless("alice", DefaultModules(&recordingSaver{})...)
	assert.ErrorIs(t, w.Configure(context.Background(), &models.Image{}, 0), ErrNotInitialized)
}

func TestConfigureDefaultsToMiddleSlice(t *testing.T) {
	w := loadedWidget(t, &recordingSaver{})
	info := &models.Image{Dim: []int{100, 60, 40}}

	w.Enact(session.ResolvedConfig{View: "cor", EditMode: session.EditModeEdit, Fullscreen: true})
	require.NoError(t, w.Configure(context.Background(), info, 0))
	assert.Equal(t, "cor", w.CurrentView())
	require.NotNil(t, w.CurrentSlice())
	assert.Equal(t, 30, *w.CurrentSlice())

	state := w.State()
	assert.True(t, state.Fullscreen)
	assert.Equal(t, session.EditModeEdit, state.EditMode)

	w.Enact(session.ResolvedConfig{})
	require.NoError(t, w.Configure(context.Background(), info, 1))
	assert.Equal(t, session.DefaultView, w.CurrentView())
	assert.Equal(t, 50, *w.CurrentSlice())
	assert.Equal(t, 1, w.State().Index)
}

func TestConfigureUppercaseView(t *testing.T) {
	w := loadedWidget(t, &recordingSaver{})
	w.Enact(session.ResolvedConfig{View: "COR"})
	require.NoError(t, w.Configure(context.Background(), &models.Image{Dim: []int{160, 200, 120}}, 0))
	assert.Equal(t, "cor", w.CurrentView())
	assert.Equal(t, 100, *w.CurrentSlice())

	w.Navigate("AXI", 4)
	assert.Equal(t, "axi", w.CurrentView())
	assert.Equal(t, 60, middleSlice([]int{160, 200, 120}, "AXI"))
}

func TestConfigureKeepsGivenSlice(t *testing.T) {
	w := loadedWidget(t, &recordingSaver{})
	slice := 12
	w.Enact(session.ResolvedConfig{View: "axi", Slice: &slice})
	require.NoError(t, w.Configure(context.Background(), &models.Image{Dim: []int{10, 10, 10}}, 0))
	assert.Equal(t, 12, *w.CurrentSlice())

	w.Navigate("sag", 3)
	assert.Equal(t, "sag", w.CurrentView())
	assert.Equal(t, 3, *w.CurrentSlice())
}

func TestSendSaveMetadataMessage(t *testing.T) {
	saver := &recordingSaver{}
	w := loadedWidget(t, saver)
	info := &models.Image{ID: 1}

	require.NoError(t, w.SendSaveMetadataMessage(context.Background(), info))
	require.Len(t, saver.saved, 1)
	assert.Same(t, info, saver.saved[0])
	assert.Equal(t, 1, w.State().Saves)

	saver.err = errors.New("database locked")
	assert.Error(t, w.SendSaveMetadataMessage(context.Background(), info))
	assert.Equal(t, "alice", w.CurrentUser())
}

func TestMiddleSlice(t *testing.T) {
	assert.Equal(t, 5, middleSlice([]int{10, 20, 30}, "sag"))
	assert.Equal(t, 10, middleSlice([]int{10, 20, 30}, "cor"))
	assert.Equal(t, 15, middleSlice([]int{10, 20, 30}, "axi"))
	assert.Equal(t, 0, middleSlice([]int{10}, "axi"))
	assert.Equal(t, 5, middleSlice([]int{10, 20, 30}, "unknown"))
}
