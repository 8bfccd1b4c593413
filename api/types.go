package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/KlausAbut/flowboard-app/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	GetBoard(ctx context.Context, boardID string) (domain.Board, error)
	BoardIDForColumn(ctx context.Context, columnID string) (string, error)
	NextColumnPosition(ctx context.Context, boardID string) (int, error)
	NextCardPosition(ctx context.Context, columnID string) (int, error)
	InsertColumn(ctx context.Context, boardID, title string, position int) (domain.Column, error)
	InsertCard(ctx context.Context, columnID, title, description string, position int) (domain.Card, error)
	RepositionCard(ctx context.Context, cardID, toColumnID string, position int) error
	CreateUser(ctx context.Context, email, name, passwordHash string) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByID(ctx context.Context, id string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Notifier fans out a payload-free "board changed" signal to subscribers.
// Delivery failures are the notifier's own concern; handlers never fail a
// mutation because a notification could not be sent.
type Notifier interface {
	BoardChanged(ctx context.Context, boardID string)
}

// Authenticator verifies a raw credential and returns its subject.
type Authenticator interface {
	VerifyToken(token string) (string, error)
}

func errJSON(c echo.Context, status int, kind string) error {
	return c.JSON(status, map[string]string{"error": kind})
}

// storeError maps store failures onto the wire taxonomy.
func storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrBoardNotFound),
		errors.Is(err, domain.ErrColumnNotFound),
		errors.Is(err, domain.ErrCardNotFound):
		return errJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUserExists):
		return errJSON(c, http.StatusConflict, err.Error())
	default:
		c.Logger().Error(err)
		return errJSON(c, http.StatusInternalServerError, "server_error")
	}
}
