package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newIdleClient(userID, calendarID uint64) *Client {
	// No websocket connection: the pumps are never started, the test
	// reads the send channel directly.
	return &Client{
		id:         "test",
		userID:     userID,
		calendarID: calendarID,
		send:       make(chan []byte, sendBuffer),
	}
}

func receive(t *testing.T, c *Client) ChangeEvent {
	t.Helper()
	select {
	case payload := <-c.send:
		var event ChangeEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
		return ChangeEvent{}
	}
}

func requireSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected event: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_CalendarScopedEvent(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	member := newIdleClient(1, 10)
	otherCalendar := newIdleClient(2, 20)
	hub.register <- member
	hub.register <- otherCalendar

	hub.Publish(ChangeEvent{
		Table:      TableTasks,
		Action:     ActionInsert,
		CalendarID: 10,
	})

	event := receive(t, member)
	require.Equal(t, TableTasks, event.Table)
	require.Equal(t, ActionInsert, event.Action)
	require.EqualValues(t, 10, event.CalendarID)
	require.False(t, event.OccurredAt.IsZero())

	requireSilent(t, otherCalendar)
}

func TestHub_UserTargetedEventIgnoresCalendar(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	invitee := newIdleClient(5, 10)
	sameCalendar := newIdleClient(6, 10)
	hub.register <- invitee
	hub.register <- sameCalendar

	// A targeted event reaches only the named user, even though both
	// clients watch the same calendar.
	hub.Publish(ChangeEvent{
		Table:        TableMemberships,
		Action:       ActionInsert,
		CalendarID:   10,
		TargetUserID: 5,
	})

	event := receive(t, invitee)
	require.Equal(t, TableMemberships, event.Table)
	require.EqualValues(t, 5, event.TargetUserID)

	requireSilent(t, sameCalendar)
}

func TestHub_UnregisteredClientGetsNothing(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	client := newIdleClient(1, 10)
	hub.register <- client
	hub.unregister <- client

	hub.Publish(ChangeEvent{Table: TableTasks, Action: ActionUpdate, CalendarID: 10})

	// The unregister closed the send channel; a closed receive yields
	// the zero payload immediately.
	select {
	case payload, ok := <-client.send:
		require.False(t, ok, "expected closed channel, got %s", payload)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}
