package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const reconnectDelay = time.Second

// Listen consumes the server's invalidation stream and refetches the board on
// every event addressed to it. Events for other boards are ignored. The loop
// reconnects after a dropped stream and returns only when ctx is cancelled;
// a missed event is recovered by the next successful refetch, never replayed.
func (b *Board) Listen(ctx context.Context) error {
	for {
		if err := b.consumeStream(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (b *Board) consumeStream(ctx context.Context) error {
	streamURL := b.api.baseURL + "/stream?" + url.Values{
		"board": {b.boardID},
		"token": {b.api.token},
	}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return err
	}
	resp, err := b.api.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode}
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			// comments and keepalives
			continue
		}
		var ev struct {
			BoardID string `json:"boardId"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}
		if ev.BoardID != b.boardID {
			continue
		}
		// refetch failures are recovered by the next event or manual reload
		_ = b.Load(ctx)
	}
	return scanner.Err()
}
