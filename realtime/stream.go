package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/KlausAbut/flowboard-app/api"
)

const keepaliveInterval = 30 * time.Second

// Authenticator verifies a handshake credential and returns its subject.
type Authenticator interface {
	VerifyToken(token string) (string, error)
}

// Register wires the SSE stream endpoint on the given Echo instance.
func Register(e *echo.Echo, broker *Broker, auth Authenticator) {
	e.GET("/stream", streamBoard(broker, auth))
}

// streamBoard serves the persistent invalidation stream for one board. The
// credential is taken from the explicit token query field first, then from
// the raw Cookie header, and is verified exactly once at handshake time: a
// connection is never admitted unauthenticated, and the bound identity is not
// re-verified per event.
func streamBoard(broker *Broker, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := api.HandshakeCredential(c)
		if token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		}
		if _, err := auth.VerifyToken(token); err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}
		boardID := c.QueryParam("board")
		if boardID == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing"})
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		c.Response().WriteHeader(http.StatusOK)
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}
		// Write an initial comment to ensure headers are flushed to the client.
		if _, err := c.Response().Write([]byte(":ok\n\n")); err != nil {
			return nil
		}
		flusher.Flush()

		ch := broker.Subscribe(boardID)
		defer broker.Unsubscribe(boardID, ch)
		ctx := c.Request().Context()
		ticker := time.NewTicker(keepaliveInterval)
		defer ticker.Stop()
		for {
			select {
			case id := <-ch:
				data, _ := json.Marshal(boardChangedEvent{BoardID: id})
				if _, err := c.Response().Write([]byte("data: ")); err != nil {
					return nil
				}
				if _, err := c.Response().Write(data); err != nil {
					return nil
				}
				if _, err := c.Response().Write([]byte("\n\n")); err != nil {
					return nil
				}
				flusher.Flush()
			case <-ticker.C:
				// Send a comment as a heartbeat to keep the connection alive.
				if _, err := c.Response().Write([]byte(":keepalive\n\n")); err != nil {
					return nil
				}
				flusher.Flush()
			case <-ctx.Done():
				return nil
			}
		}
	}
}
