package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/timeless-backend/internal/realtime"
	"github.com/yungbote/timeless-backend/internal/store"
	"github.com/yungbote/timeless-backend/internal/types"
)

func TestBroadcasterTicksToSubscribers(t *testing.T) {
	log := mustTestLogger(t)
	st := store.NewMeetingStore(log)
	hub := realtime.NewSSEHub(log)

	meetingID := uuid.New()
	if err := st.Create(meetingID, true); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := st.Append(meetingID, "hello"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	client := hub.NewSSEClient()
	hub.AddChannel(client, meetingID.String())

	b := NewStateBroadcaster(log, st, hub, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Run(ctx) }()

	select {
	case msg := <-client.Outbound:
		if msg.Event != realtime.SSEEventMeetingState {
			t.Fatalf("event: want=%q got=%q", realtime.SSEEventMeetingState, msg.Event)
		}
		snap, ok := msg.Data.(types.Snapshot)
		if !ok {
			t.Fatalf("data type: want types.Snapshot got %T", msg.Data)
		}
		if len(snap.Transcriptions) != 1 || snap.Transcriptions[0] != "hello" {
			t.Fatalf("snapshot transcript: got=%v", snap.Transcriptions)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for tick broadcast")
	}
}

func TestBroadcasterEmitsEvenWithoutChanges(t *testing.T) {
	log := mustTestLogger(t)
	st := store.NewMeetingStore(log)
	hub := realtime.NewSSEHub(log)

	meetingID := uuid.New()
	if err := st.Create(meetingID, true); err != nil {
		t.Fatalf("Create: %v", err)
	}
	client := hub.NewSSEClient()
	hub.AddChannel(client, meetingID.String())

	b := NewStateBroadcaster(log, st, hub, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Run(ctx) }()

	// The heartbeat keeps pushing identical snapshots.
	for i := 0; i < 3; i++ {
		select {
		case <-client.Outbound:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for heartbeat %d", i+1)
		}
	}
}

func TestBroadcasterStopsOnContextCancel(t *testing.T) {
	log := mustTestLogger(t)
	b := NewStateBroadcaster(log, store.NewMeetingStore(log), realtime.NewSSEHub(log), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run: want context.Canceled got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("broadcaster did not stop on cancel")
	}
}
