// Package client holds a live local copy of one board: mutations apply
// optimistically to the local copy before being persisted, and every
// notification, failure or manual reload converges it back onto the server's
// authoritative state through one full-refetch path.
package client

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/KlausAbut/flowboard-app/domain"
)

// State of the board view.
type State int

const (
	// StateLoading means no authoritative copy has been fetched yet.
	StateLoading State = iota
	// StateReady means the local copy is serving reads and accepting mutations.
	StateReady
	// StateMutating means a mutation is applied locally and awaiting persistence.
	StateMutating
)

// ErrNotReady is returned for mutations attempted before the first load.
var ErrNotReady = errors.New("board not loaded")

// Board is a live view of one board.
type Board struct {
	api     *httpAPI
	boardID string

	mu     sync.Mutex
	state  State
	board  domain.Board
	loaded bool
}

// New creates a board view. Nothing is fetched until Load.
func New(baseURL, boardID, token string) *Board {
	return &Board{
		api:     newHTTPAPI(baseURL, token),
		boardID: boardID,
	}
}

// State reports the current lifecycle state.
func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a deep copy of the local board and whether a copy has been
// loaded at all.
func (b *Board) Snapshot() (domain.Board, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.board.Clone(), b.loaded
}

// Load fetches the authoritative board and replaces the local copy wholesale,
// discarding any optimistic state including temporary ids. It is the single
// reconciliation path: notifications, persistence failures and manual reloads
// all land here. A failed initial load leaves the view in StateLoading and is
// retryable.
func (b *Board) Load(ctx context.Context) error {
	board, err := b.api.fetchBoard(ctx, b.boardID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		if b.loaded {
			// keep serving the previous copy until a later refetch succeeds
			b.state = StateReady
		}
		return err
	}
	board.Sort()
	b.board = board
	b.loaded = true
	b.state = StateReady
	return nil
}

// Refresh is a manually triggered reload. Same path as Load.
func (b *Board) Refresh(ctx context.Context) error {
	return b.Load(ctx)
}

// AddColumn appends a column locally under a temporary identity and persists
// it. The server-assigned identity arrives with the next refetch.
func (b *Board) AddColumn(ctx context.Context, title string) error {
	return b.mutate(ctx,
		func(board *domain.Board) error {
			board.Columns = append(board.Columns, domain.Column{
				ID:       tempID(),
				Title:    title,
				Position: domain.NextColumnPosition(*board),
				Cards:    []domain.Card{},
			})
			return nil
		},
		func(ctx context.Context) error {
			return b.api.createColumn(ctx, b.boardID, title)
		},
	)
}

// AddCard appends a card to the column locally and persists it.
func (b *Board) AddCard(ctx context.Context, columnID, title, description string) error {
	return b.mutate(ctx,
		func(board *domain.Board) error {
			col := board.FindColumn(columnID)
			if col == nil {
				return domain.ErrColumnNotFound
			}
			col.Cards = append(col.Cards, domain.Card{
				ID:          tempID(),
				Title:       title,
				Description: description,
				Position:    domain.NextCardPosition(*col),
			})
			return nil
		},
		func(ctx context.Context) error {
			return b.api.createCard(ctx, columnID, title, description)
		},
	)
}

// MoveCard moves a card to another column locally in a single state
// transition and persists the move.
func (b *Board) MoveCard(ctx context.Context, cardID, toColumnID string) error {
	return b.mutate(ctx,
		func(board *domain.Board) error {
			return board.MoveCard(cardID, toColumnID)
		},
		func(ctx context.Context) error {
			return b.api.moveCard(ctx, cardID, toColumnID)
		},
	)
}

// mutate runs one Ready -> Mutating -> Ready cycle: apply the optimistic
// local change, persist it, and on persistence failure discard the local
// divergence with a full refetch instead of a piecemeal rollback. Ready is
// re-entered regardless of outcome.
func (b *Board) mutate(ctx context.Context, apply func(*domain.Board) error, persist func(context.Context) error) error {
	b.mu.Lock()
	if !b.loaded {
		b.mu.Unlock()
		return ErrNotReady
	}
	b.state = StateMutating
	if err := apply(&b.board); err != nil {
		b.state = StateReady
		b.mu.Unlock()
		return err
	}
	b.mu.Unlock()

	if err := persist(ctx); err != nil {
		// resynchronize; the persist error is the one surfaced to the caller
		_ = b.Load(ctx)
		b.mu.Lock()
		b.state = StateReady
		b.mu.Unlock()
		return err
	}

	b.mu.Lock()
	b.state = StateReady
	b.mu.Unlock()
	return nil
}

func tempID() string {
	return "tmp-" + uuid.NewString()
}
