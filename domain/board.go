package domain

import "sort"

// Card is a single item inside a column. Position defines top-to-bottom order.
type Card struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

// Column is an ordered list of cards. Position defines left-to-right order
// within the owning board.
type Column struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
	Cards    []Card `json:"cards"`
}

// Board is the full board aggregate as served to clients: columns and cards
// sorted ascending by position at both levels.
type Board struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Sort orders columns and cards ascending by position. The sort is stable, so
// siblings that collided on a position keep a consistent relative order per
// read.
func (b *Board) Sort() {
	sort.SliceStable(b.Columns, func(i, j int) bool {
		return b.Columns[i].Position < b.Columns[j].Position
	})
	for i := range b.Columns {
		cards := b.Columns[i].Cards
		sort.SliceStable(cards, func(x, y int) bool {
			return cards[x].Position < cards[y].Position
		})
	}
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	out := Board{ID: b.ID, Name: b.Name}
	if b.Columns != nil {
		out.Columns = make([]Column, len(b.Columns))
		for i, col := range b.Columns {
			cc := Column{ID: col.ID, Title: col.Title, Position: col.Position}
			if col.Cards != nil {
				cc.Cards = append([]Card(nil), col.Cards...)
			}
			out.Columns[i] = cc
		}
	}
	return out
}

// FindColumn returns a pointer into the board's column slice, or nil.
func (b *Board) FindColumn(columnID string) *Column {
	for i := range b.Columns {
		if b.Columns[i].ID == columnID {
			return &b.Columns[i]
		}
	}
	return nil
}

// ColumnOfCard returns the column currently holding the card, or nil.
func (b *Board) ColumnOfCard(cardID string) *Column {
	for i := range b.Columns {
		for _, card := range b.Columns[i].Cards {
			if card.ID == cardID {
				return &b.Columns[i]
			}
		}
	}
	return nil
}
