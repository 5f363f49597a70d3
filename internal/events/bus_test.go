package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	bus.now = func() time.Time { return fixed }

	first, unsubFirst := bus.Subscribe(1)
	second, unsubSecond := bus.Subscribe(1)
	defer unsubFirst()
	defer unsubSecond()

	bus.Publish("positions", &PositionUpdatedData{PositionID: "p1", Symbol: "AAPL", MarketValue: 1000})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case ev := <-ch:
			assert.Equal(t, PositionUpdated, ev.Type)
			assert.Equal(t, "positions", ev.Module)
			assert.Equal(t, fixed, ev.Timestamp)
			data, ok := ev.Data.(*PositionUpdatedData)
			require.True(t, ok)
			assert.Equal(t, "p1", data.PositionID)
		default:
			t.Fatal("expected an event")
		}
	}
}

func TestBus_FullSubscriberDropsEvent(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	ch, unsub := bus.Subscribe(1)
	defer unsub()

	bus.Publish("reporting", &ReportGeneratedData{ReportID: "r1"})
	bus.Publish("reporting", &ReportGeneratedData{ReportID: "r2"})

	ev := <-ch
	assert.Equal(t, "r1", ev.Data.(*ReportGeneratedData).ReportID)
	select {
	case <-ch:
		t.Fatal("second event should have been dropped")
	default:
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	ch, unsub := bus.Subscribe(4)
	assert.Equal(t, 1, bus.SubscriberCount())

	unsub()
	unsub()
	assert.Equal(t, 0, bus.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)

	// publishing with no subscribers is fine
	bus.Publish("regime", &RegimeChangedData{From: "bull_quiet", To: "crash"})
}

func TestBus_Close(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	ch, unsub := bus.Subscribe(1)

	bus.Close()
	_, open := <-ch
	assert.False(t, open)

	unsub()
	bus.Publish("positions", &PositionRemovedData{PositionID: "p1"})

	late, _ := bus.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}

func TestBus_NilIsNoop(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() {
		bus.Publish("positions", &PositionRemovedData{PositionID: "p1"})
		bus.Close()
	})
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestEventData_Types(t *testing.T) {
	tests := []struct {
		data EventData
		want EventType
	}{
		{&PositionUpdatedData{}, PositionUpdated},
		{&PositionRemovedData{}, PositionRemoved},
		{&ReportGeneratedData{}, ReportGenerated},
		{&RegimeChangedData{}, RegimeChanged},
		{&SimulationCompletedData{}, SimulationCompleted},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.data.EventType())
	}
}
