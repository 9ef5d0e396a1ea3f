package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSlot = "AtlasMaker"

func intPtr(i int) *int {
	return &i
}

func TestEnvelopeUpsert(t *testing.T) {
	envelope := NewEnvelope(1)
	envelope.Upsert(HistoryEntry{URL: "A", View: "cor", Slice: intPtr(5)})
	envelope.Upsert(HistoryEntry{URL: "B", View: "axi", Slice: intPtr(1)})
	envelope.Upsert(HistoryEntry{URL: "A", View: "cor", Slice: intPtr(9)})

	require.Len(t, envelope.History, 2)
	assert.Equal(t, "B", envelope.History[0].URL)
	assert.Equal(t, "A", envelope.History[1].URL)
	assert.Equal(t, 9, *envelope.History[1].Slice)

	entry, ok := envelope.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, 9, *entry.Slice)

	_, ok = envelope.Lookup("C")
	assert.False(t, ok)
}

func TestEnvelopeUpsertDropsStoredDuplicates(t *testing.T) {
	envelope := &Envelope{Version: 1, History: []HistoryEntry{{URL: "A"}, {URL: "A"}, {URL: "B"}}}
	envelope.Upsert(HistoryEntry{URL: "A", View: "sag"})

	require.Len(t, envelope.History, 2)
	assert.Equal(t, []string{"B", "A"}, []string{envelope.History[0].URL, envelope.History[1].URL})
}

func TestNilEnvelopeLookup(t *testing.T) {
	var envelope *Envelope
	_, ok := envelope.Lookup("A")
	assert.False(t, ok)
}

func TestStoreLoadAbsent(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage, testSlot, 1)

	_, ok := store.Load()
	assert.False(t, ok, "missing slot")

	require.NoError(t, storage.SetItem(testSlot, "{not json"))
	_, ok = store.Load()
	assert.False(t, ok, "unparsable slot")

	require.NoError(t, storage.SetItem(testSlot, `{"version":0,"history":[{"url":"A","view":"cor","slice":5,"lastVisited":""}]}`))
	_, ok = store.Load()
	assert.False(t, ok, "old version")
}

func TestStoreVersionMismatchActsAsEmptyHistory(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, NewStore(storage, testSlot, 1).Remember(HistoryEntry{URL: "A", View: "cor", Slice: intPtr(5)}))

	store := NewStore(storage, testSlot, 2)
	envelope, ok := store.Load()
	assert.False(t, ok)
	_, found := envelope.Lookup("A")
	assert.False(t, found)

	// the next write starts a fresh envelope of the running version
	require.NoError(t, store.Remember(HistoryEntry{URL: "B", View: "sag", Slice: intPtr(0)}))
	envelope, ok = store.Load()
	require.True(t, ok)
	assert.Equal(t, 2, envelope.Version)
	require.Len(t, envelope.History, 1)
	assert.Equal(t, "B", envelope.History[0].URL)
}

func TestStoreRememberUpsertsByURL(t *testing.T) {
	store := NewStore(NewMemoryStorage(), testSlot, 1)
	require.NoError(t, store.Remember(HistoryEntry{URL: "A", View: "cor", Slice: intPtr(5)}))
	require.NoError(t, store.Remember(HistoryEntry{URL: "A", View: "cor", Slice: intPtr(7)}))

	envelope, ok := store.Load()
	require.True(t, ok)
	require.Len(t, envelope.History, 1)
	assert.Equal(t, 7, *envelope.History[0].Slice)
}

func TestStoreRoundTrip(t *testing.T) {
	storage := NewMemoryStorage()
	stored := `{"version":1,"history":[{"url":"A","view":"cor","slice":5,"lastVisited":"2016-03-01T10:00:00.000Z"},{"url":"B","view":"axi","slice":null,"lastVisited":"2016-03-02T10:00:00.000Z"}]}`
	require.NoError(t, storage.SetItem(testSlot, stored))

	store := NewStore(storage, testSlot, 1)
	envelope, ok := store.Load()
	require.True(t, ok)
	require.NoError(t, store.Persist(envelope))

	raw, _, err := storage.GetItem(testSlot)
	require.NoError(t, err)
	assert.Equal(t, stored, raw)
}

type failingStorage struct{}

func (failingStorage) GetItem(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (failingStorage) SetItem(string, string) error { return errors.New("disk gone") }

func TestStoreStorageErrors(t *testing.T) {
	store := NewStore(failingStorage{}, testSlot, 1)
	_, ok := store.Load()
	assert.False(t, ok)
	assert.Error(t, store.Remember(HistoryEntry{URL: "A"}))
}

func TestStoresPerUser(t *testing.T) {
	storage := NewMemoryStorage()
	stores := NewStores(storage, testSlot, 1)
	assert.Same(t, stores.For("alice"), stores.For("alice"))

	require.NoError(t, stores.For("alice").Remember(HistoryEntry{URL: "A", View: "cor", Slice: intPtr(1)}))
	_, ok := stores.For("bob").Load()
	assert.False(t, ok)

	_, ok, err := storage.GetItem(testSlot + ":alice")
	require.NoError(t, err)
	assert.True(t, ok)
}
