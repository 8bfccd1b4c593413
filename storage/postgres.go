package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KlausAbut/flowboard-app/domain"
)

// Postgres persists boards, columns, cards and users in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pgx pool using the given connection string.
func NewPostgres(ctx context.Context, connStr string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) GetBoard(ctx context.Context, boardID string) (domain.Board, error) {
	var b domain.Board
	err := s.pool.QueryRow(ctx,
		`SELECT id, name FROM boards WHERE id = $1`, boardID,
	).Scan(&b.ID, &b.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Board{}, domain.ErrBoardNotFound
	}
	if err != nil {
		return domain.Board{}, fmt.Errorf("fetch board: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, position FROM columns WHERE board_id = $1 ORDER BY position ASC`, boardID)
	if err != nil {
		return domain.Board{}, fmt.Errorf("fetch columns: %w", err)
	}
	defer rows.Close()
	b.Columns = []domain.Column{}
	for rows.Next() {
		var col domain.Column
		if err := rows.Scan(&col.ID, &col.Title, &col.Position); err != nil {
			return domain.Board{}, fmt.Errorf("scan column: %w", err)
		}
		col.Cards = []domain.Card{}
		b.Columns = append(b.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return domain.Board{}, fmt.Errorf("fetch columns: %w", err)
	}

	for i := range b.Columns {
		cards, err := s.cardsForColumn(ctx, b.Columns[i].ID)
		if err != nil {
			return domain.Board{}, err
		}
		b.Columns[i].Cards = cards
	}
	return b, nil
}

func (s *Postgres) cardsForColumn(ctx context.Context, columnID string) ([]domain.Card, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, COALESCE(description, ''), position
		 FROM cards WHERE column_id = $1 ORDER BY position ASC`, columnID)
	if err != nil {
		return nil, fmt.Errorf("fetch cards: %w", err)
	}
	defer rows.Close()
	cards := []domain.Card{}
	for rows.Next() {
		var card domain.Card
		if err := rows.Scan(&card.ID, &card.Title, &card.Description, &card.Position); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch cards: %w", err)
	}
	return cards, nil
}

func (s *Postgres) BoardIDForColumn(ctx context.Context, columnID string) (string, error) {
	var boardID string
	err := s.pool.QueryRow(ctx,
		`SELECT board_id FROM columns WHERE id = $1`, columnID,
	).Scan(&boardID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrColumnNotFound
	}
	if err != nil {
		return "", fmt.Errorf("fetch column board: %w", err)
	}
	return boardID, nil
}

func (s *Postgres) NextColumnPosition(ctx context.Context, boardID string) (int, error) {
	var pos int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM columns WHERE board_id = $1`, boardID,
	).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("next column position: %w", err)
	}
	return pos, nil
}

func (s *Postgres) NextCardPosition(ctx context.Context, columnID string) (int, error) {
	var pos int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM cards WHERE column_id = $1`, columnID,
	).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("next card position: %w", err)
	}
	return pos, nil
}

func (s *Postgres) InsertColumn(ctx context.Context, boardID, title string, position int) (domain.Column, error) {
	col := domain.Column{ID: uuid.NewString(), Title: title, Position: position, Cards: []domain.Card{}}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO columns (id, board_id, title, position) VALUES ($1, $2, $3, $4)`,
		col.ID, boardID, title, position)
	if err != nil {
		return domain.Column{}, fmt.Errorf("insert column: %w", err)
	}
	return col, nil
}

func (s *Postgres) InsertCard(ctx context.Context, columnID, title, description string, position int) (domain.Card, error) {
	card := domain.Card{ID: uuid.NewString(), Title: title, Description: description, Position: position}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cards (id, column_id, title, description, position) VALUES ($1, $2, $3, $4, $5)`,
		card.ID, columnID, title, description, position)
	if err != nil {
		return domain.Card{}, fmt.Errorf("insert card: %w", err)
	}
	return card, nil
}

func (s *Postgres) RepositionCard(ctx context.Context, cardID, toColumnID string, position int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cards SET column_id = $1, position = $2 WHERE id = $3`,
		toColumnID, position, cardID)
	if err != nil {
		return fmt.Errorf("reposition card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCardNotFound
	}
	return nil
}

func (s *Postgres) CreateUser(ctx context.Context, email, name, passwordHash string) (domain.User, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return domain.User{}, fmt.Errorf("check user: %w", err)
	}
	if exists {
		return domain.User{}, domain.ErrUserExists
	}
	u := domain.User{ID: uuid.NewString(), Email: email, Name: name, Password: passwordHash}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password) VALUES ($1, $2, $3, $4)`,
		u.ID, email, name, passwordHash)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Postgres) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, password FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	return u, nil
}

func (s *Postgres) UserByID(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, password FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	return u, nil
}

func (s *Postgres) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, name FROM users ORDER BY email ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
