package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// SubscribeUpdates listens for board invalidations on the pub/sub channel and
// rebroadcasts them to this instance's local subscribers. Runs until ctx is
// cancelled, reconnecting when the channel closes.
func SubscribeUpdates(
	ctx context.Context,
	logger *log.Logger,
	rc *redis.Client,
	channel string,
	broker *Broker,
) {
	if channel == "" {
		channel = DefaultChannel
	}
	for {
		sub := rc.Subscribe(ctx, channel)
		ch := sub.Channel()
	receive:
		for {
			select {
			case <-ctx.Done():
				sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break receive
				}
				var ev boardChangedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.Errorf("unable to parse update: %v", err)
					continue
				}
				if ev.BoardID == "" {
					continue
				}
				broker.Broadcast(ev.BoardID)
			}
		}
		sub.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Error("pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}
