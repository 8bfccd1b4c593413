package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// DefaultChannel is the pub/sub channel invalidations travel on.
const DefaultChannel = "board-updates"

type boardChangedEvent struct {
	BoardID string `json:"boardId"`
}

// Notifier publishes board invalidations to Redis so every running instance
// (including this one, via the bridge) can fan them out to its subscribers.
// The event carries only the board identifier; subscribers refetch the
// authoritative state themselves.
type Notifier struct {
	rc      *redis.Client
	channel string
	logger  *log.Logger
}

// NewNotifier creates a Notifier publishing on the given channel.
func NewNotifier(rc *redis.Client, channel string, logger *log.Logger) *Notifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Notifier{rc: rc, channel: channel, logger: logger}
}

// BoardChanged publishes the invalidation. Publish failures are logged and
// dropped: clients recover through their next fetch, not through retries.
func (n *Notifier) BoardChanged(ctx context.Context, boardID string) {
	payload, err := json.Marshal(boardChangedEvent{BoardID: boardID})
	if err != nil {
		n.logger.Errorf("marshal board event: %v", err)
		return
	}
	if err := n.rc.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.logger.Errorf("publish board event: %v", err)
	}
}
