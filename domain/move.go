package domain

// MoveCard moves a card out of its current column and appends it to the
// destination column, assigning the destination's append position. The
// board's column slice is replaced in a single assignment so a caller
// observing the board before or after the call never sees the card in both
// columns or in neither.
//
// Moving a card within its own column is a no-op, matching the server's
// append-only move semantics.
func (b *Board) MoveCard(cardID, toColumnID string) error {
	src := b.ColumnOfCard(cardID)
	if src == nil {
		return ErrCardNotFound
	}
	dst := b.FindColumn(toColumnID)
	if dst == nil {
		return ErrColumnNotFound
	}
	if src.ID == dst.ID {
		return nil
	}

	var moved Card
	next := make([]Column, len(b.Columns))
	for i, col := range b.Columns {
		if col.ID != src.ID {
			next[i] = col
			continue
		}
		kept := make([]Card, 0, len(col.Cards)-1)
		for _, card := range col.Cards {
			if card.ID == cardID {
				moved = card
				continue
			}
			kept = append(kept, card)
		}
		next[i] = Column{ID: col.ID, Title: col.Title, Position: col.Position, Cards: kept}
	}
	moved.Position = NextCardPosition(*dst)
	for i := range next {
		if next[i].ID == dst.ID {
			cards := append([]Card(nil), next[i].Cards...)
			next[i].Cards = append(cards, moved)
		}
	}

	b.Columns = next
	return nil
}
