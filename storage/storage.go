package storage

import (
	"context"

	"github.com/KlausAbut/flowboard-app/domain"
)

// Store is the persistence contract consumed by the API layer. Reads return
// aggregates sorted ascending by position. Writes are single self-contained
// statements: position allocation (NextColumnPosition/NextCardPosition) and
// the insert or reposition that consumes it are deliberately separate calls,
// so concurrent appends may collide on a position and the last write wins.
type Store interface {
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
