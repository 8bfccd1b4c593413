package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/KlausAbut/flowboard-app/domain"
)

type memoryCard struct {
	domain.Card
	columnID string
	seq      int
}

type memoryColumn struct {
	domain.Column
	boardID string
}

// Memory is an in-process Store used by tests and the in-memory demo mode.
// It mirrors the relational layout: flat card and column maps keyed by id,
// assembled into a sorted aggregate on read.
type Memory struct {
	mu      sync.Mutex
	seq     int
	boards  map[string]domain.Board
	columns map[string]*memoryColumn
	cards   map[string]*memoryCard
	users   map[string]domain.User
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		boards:  make(map[string]domain.Board),
		columns: make(map[string]*memoryColumn),
		cards:   make(map[string]*memoryCard),
		users:   make(map[string]domain.User),
	}
}

// SeedBoard creates a board with the given column titles at positions 0..n-1
// and returns its id.
func (s *Memory) SeedBoard(name string, columnTitles ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.boards[id] = domain.Board{ID: id, Name: name}
	for i, title := range columnTitles {
		colID := uuid.NewString()
		s.columns[colID] = &memoryColumn{
			Column:  domain.Column{ID: colID, Title: title, Position: i},
			boardID: id,
		}
	}
	return id
}

// ColumnIDs returns the board's column ids in display order.
func (s *Memory) ColumnIDs(boardID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cols := s.columnsOf(boardID)
	ids := make([]string, len(cols))
	for i, col := range cols {
		ids[i] = col.ID
	}
	return ids
}

func (s *Memory) columnsOf(boardID string) []*memoryColumn {
	cols := []*memoryColumn{}
	for _, col := range s.columns {
		if col.boardID == boardID {
			cols = append(cols, col)
		}
	}
	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].Position != cols[j].Position {
			return cols[i].Position < cols[j].Position
		}
		return cols[i].ID < cols[j].ID
	})
	return cols
}

func (s *Memory) cardsOf(columnID string) []*memoryCard {
	cards := []*memoryCard{}
	for _, card := range s.cards {
		if card.columnID == columnID {
			cards = append(cards, card)
		}
	}
	// seq breaks position ties so reads stay stable
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Position != cards[j].Position {
			return cards[i].Position < cards[j].Position
		}
		return cards[i].seq < cards[j].seq
	})
	return cards
}

func (s *Memory) GetBoard(ctx context.Context, boardID string) (domain.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardID]
	if !ok {
		return domain.Board{}, domain.ErrBoardNotFound
	}
	out := domain.Board{ID: b.ID, Name: b.Name, Columns: []domain.Column{}}
	for _, col := range s.columnsOf(boardID) {
		c := domain.Column{ID: col.ID, Title: col.Title, Position: col.Position, Cards: []domain.Card{}}
		for _, card := range s.cardsOf(col.ID) {
			c.Cards = append(c.Cards, card.Card)
		}
		out.Columns = append(out.Columns, c)
	}
	return out, nil
}

func (s *Memory) BoardIDForColumn(ctx context.Context, columnID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.columns[columnID]
	if !ok {
		return "", domain.ErrColumnNotFound
	}
	return col.boardID, nil
}

func (s *Memory) NextColumnPosition(ctx context.Context, boardID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	positions := []int{}
	for _, col := range s.columnsOf(boardID) {
		positions = append(positions, col.Position)
	}
	return domain.NextPosition(positions), nil
}

func (s *Memory) NextCardPosition(ctx context.Context, columnID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	positions := []int{}
	for _, card := range s.cardsOf(columnID) {
		positions = append(positions, card.Position)
	}
	return domain.NextPosition(positions), nil
}

func (s *Memory) InsertColumn(ctx context.Context, boardID, title string, position int) (domain.Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[boardID]; !ok {
		return domain.Column{}, domain.ErrBoardNotFound
	}
	col := domain.Column{ID: uuid.NewString(), Title: title, Position: position, Cards: []domain.Card{}}
	s.columns[col.ID] = &memoryColumn{Column: col, boardID: boardID}
	return col, nil
}

func (s *Memory) InsertCard(ctx context.Context, columnID, title, description string, position int) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.columns[columnID]; !ok {
		return domain.Card{}, domain.ErrColumnNotFound
	}
	card := domain.Card{ID: uuid.NewString(), Title: title, Description: description, Position: position}
	s.seq++
	s.cards[card.ID] = &memoryCard{Card: card, columnID: columnID, seq: s.seq}
	return card, nil
}

func (s *Memory) RepositionCard(ctx context.Context, cardID, toColumnID string, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[cardID]
	if !ok {
		return domain.ErrCardNotFound
	}
	if _, ok := s.columns[toColumnID]; !ok {
		return domain.ErrColumnNotFound
	}
	card.columnID = toColumnID
	card.Position = position
	s.seq++
	card.seq = s.seq
	return nil
}

func (s *Memory) CreateUser(ctx context.Context, email, name, passwordHash string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return domain.User{}, domain.ErrUserExists
		}
	}
	u := domain.User{ID: uuid.NewString(), Email: email, Name: name, Password: passwordHash}
	s.users[u.ID] = u
	return u, nil
}

func (s *Memory) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Memory) UserByID(ctx context.Context, id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *Memory) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := []domain.User{}
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}
