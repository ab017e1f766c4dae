package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/timeless-backend/internal/pkg/logger"
	"github.com/yungbote/timeless-backend/internal/realtime"
	"github.com/yungbote/timeless-backend/internal/store"
)

// StateBroadcaster is the heartbeat half of the broadcast design: on every
// tick it snapshots each meeting that has subscribers and pushes, whether or
// not anything changed. Edge-triggered pushes can be dropped or coalesced;
// the tick guarantees convergence within one interval.
type StateBroadcaster struct {
	log      *logger.Logger
	store    *store.MeetingStore
	hub      *realtime.SSEHub
	interval time.Duration
}

func NewStateBroadcaster(log *logger.Logger, st *store.MeetingStore, hub *realtime.SSEHub, interval time.Duration) *StateBroadcaster {
	if interval <= 0 {
		interval = time.Second
	}
	return &StateBroadcaster{
		log:      log.With("service", "StateBroadcaster"),
		store:    st,
		hub:      hub,
		interval: interval,
	}
}

func (b *StateBroadcaster) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.tick()
		}
	}
}

func (b *StateBroadcaster) tick() {
	for _, channel := range b.hub.ActiveChannels() {
		meetingID, err := uuid.Parse(channel)
		if err != nil {
			continue
		}
		snap, err := b.store.Snapshot(meetingID)
		if err != nil {
			// Subscriber to a meeting this instance does not know; the bus
			// forwarder covers it in multi-instance setups.
			continue
		}
		b.hub.Broadcast(realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventMeetingState,
			Data:    snap,
		})
	}
}
