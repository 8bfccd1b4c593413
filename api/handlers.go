package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth *Auth, notifier Notifier, logger *log.Logger) {
	e.POST("/auth/register", register(store, auth))
	e.POST("/auth/login", login(store, auth))
	e.POST("/auth/logout", logout())

	gate := RequireUser(auth, store)
	e.GET("/board/:id", getBoard(store, logger), gate)
	e.GET("/users", listUsers(store), gate)
	e.POST("/api/columns", createColumn(store, notifier), gate)
	e.POST("/api/cards", createCard(store, notifier), gate)
	e.POST("/api/cards/move", moveCard(store, notifier), gate)

	e.GET("/healthcheck", healthcheck)
}

func healthcheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "flowboard-backend",
	})
}

func getBoard(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newBoardRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		fetchStart := time.Now()
		board, fetchErr := store.GetBoard(ctx, c.Param("id"))
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			err = storeError(c, fetchErr)
			return err
		}
		board.Sort()

		cards := 0
		for _, col := range board.Columns {
			cards += len(col.Cards)
		}
		metrics.SetReturned(len(board.Columns), cards)

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, board)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func createColumn(store Storage, notifier Notifier) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createColumnRequest
		if err := decodeBody(c, &req); err != nil {
			return errJSON(c, http.StatusBadRequest, "missing")
		}
		if req.BoardID == "" || req.Title == "" {
			return errJSON(c, http.StatusBadRequest, "missing")
		}

		ctx := c.Request().Context()
		pos, err := store.NextColumnPosition(ctx, req.BoardID)
		if err != nil {
			return storeError(c, err)
		}
		col, err := store.InsertColumn(ctx, req.BoardID, req.Title, pos)
		if err != nil {
			return storeError(c, err)
		}

		notifier.BoardChanged(ctx, req.BoardID)
		return c.JSON(http.StatusCreated, col)
	}
}

func createCard(store Storage, notifier Notifier) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createCardRequest
		if err := decodeBody(c, &req); err != nil {
			return errJSON(c, http.StatusBadRequest, "missing")
		}
		if req.ColumnID == "" || req.Title == "" {
			return errJSON(c, http.StatusBadRequest, "missing")
		}

		ctx := c.Request().Context()
		boardID, err := store.BoardIDForColumn(ctx, req.ColumnID)
		if err != nil {
			return storeError(c, err)
		}
		pos, err := store.NextCardPosition(ctx, req.ColumnID)
		if err != nil {
			return storeError(c, err)
		}
		card, err := store.InsertCard(ctx, req.ColumnID, req.Title, req.Description, pos)
		if err != nil {
			return storeError(c, err)
		}

		notifier.BoardChanged(ctx, boardID)
		return c.JSON(http.StatusCreated, card)
	}
}

func moveCard(store Storage, notifier Notifier) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req moveCardRequest
		if err := decodeBody(c, &req); err != nil {
			return errJSON(c, http.StatusBadRequest, "missing")
		}
		if req.CardID == "" || req.ToColumnID == "" {
			return errJSON(c, http.StatusBadRequest, "missing")
		}

		ctx := c.Request().Context()
		boardID, err := store.BoardIDForColumn(ctx, req.ToColumnID)
		if err != nil {
			return storeError(c, err)
		}
		pos, err := store.NextCardPosition(ctx, req.ToColumnID)
		if err != nil {
			return storeError(c, err)
		}
		if err := store.RepositionCard(ctx, req.CardID, req.ToColumnID, pos); err != nil {
			return storeError(c, err)
		}

		notifier.BoardChanged(ctx, boardID)
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	}
}
