package bus

import (
	"context"

	"github.com/yungbote/timeless-backend/internal/realtime"
)

// Bus fans meeting-state messages out across orchestrator instances. A single
// instance serves subscribers straight from its hub; with more than one, each
// instance publishes to the bus and forwards bus traffic into its local hub.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
