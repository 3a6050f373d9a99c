package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	seen []Event
	fail bool
}

func (h *recordingHandler) Handle(e Event) error {
	h.seen = append(h.seen, e)
	if h.fail {
		return errors.New("handler failed")
	}
	return nil
}

func (h *recordingHandler) CanHandle(eventType string) bool {
	return eventType == PlanGeneratedEvent
}

func TestInMemoryEventStore_VersionsPerStream(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	require.NoError(t, store.AppendEvent("s1", NewEvent(StockLoadedEvent, "s1", TableLoaded{Rows: 3})))
	require.NoError(t, store.AppendEvent("s2", NewEvent(StockLoadedEvent, "s2", TableLoaded{Rows: 1})))
	require.NoError(t, store.AppendEvent("s1", NewEvent(FormulasLoadedEvent, "s1", TableLoaded{Rows: 9, Added: 9})))

	s1, err := store.ReadEvents("s1", 0)
	require.NoError(t, err)
	require.Len(t, s1, 2)
	assert.Equal(t, 1, s1[0].Version())
	assert.Equal(t, 2, s1[1].Version())
	assert.Equal(t, FormulasLoadedEvent, s1[1].Type())

	tail, _ := store.ReadEvents("s1", 2)
	assert.Len(t, tail, 1)

	require.NoError(t, store.DeleteStream("s1"))
	gone, _ := store.ReadEvents("s1", 1)
	assert.Empty(t, gone)
}

func TestInMemoryEventStore_NotifiesSubscribers(t *testing.T) {
	store := NewInMemoryEventStore(nil)
	handler := &recordingHandler{fail: true}
	require.NoError(t, store.Subscribe([]string{PlanGeneratedEvent, StockLoadedEvent}, handler))

	_ = store.AppendEvent("s1", NewEvent(PlanGeneratedEvent, "s1", PlanGenerated{RunID: "r1"}))
	_ = store.AppendEvent("s1", NewEvent(StockLoadedEvent, "s1", TableLoaded{}))

	require.Len(t, handler.seen, 1, "CanHandle filters stock events")
	assert.Equal(t, "r1", handler.seen[0].Data().(PlanGenerated).RunID)
}

func TestTypeCounter_CountsSubscribedTypes(t *testing.T) {
	store := NewInMemoryEventStore(nil)
	counter := NewTypeCounter(SessionCreatedEvent, PlanGeneratedEvent)
	require.NoError(t, store.Subscribe(counter.Types(), counter))

	_ = store.AppendEvent("s1", NewEvent(SessionCreatedEvent, "s1", nil))
	_ = store.AppendEvent("s1", NewEvent(StockLoadedEvent, "s1", TableLoaded{Rows: 2}))
	_ = store.AppendEvent("s1", NewEvent(PlanGeneratedEvent, "s1", PlanGenerated{RunID: "r1"}))
	_ = store.AppendEvent("s2", NewEvent(PlanGeneratedEvent, "s2", PlanGenerated{RunID: "r2"}))

	counts := counter.Counts()
	assert.Equal(t, map[string]int{SessionCreatedEvent: 1, PlanGeneratedEvent: 2}, counts)

	counts[PlanGeneratedEvent] = 99
	assert.Equal(t, 2, counter.Counts()[PlanGeneratedEvent], "Counts returns a copy")
	assert.False(t, counter.CanHandle(StockLoadedEvent))
}
