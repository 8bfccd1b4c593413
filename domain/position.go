package domain

// NextPosition returns the append position for a new sibling: one past the
// current maximum, or 0 when there are no siblings yet. The read-then-write
// around this value is not isolated across callers; two concurrent appends
// may compute the same position and the last write wins.
func NextPosition(existing []int) int {
	max := -1
	for _, p := range existing {
		if p > max {
			max = p
		}
	}
	return max + 1
}

// NextColumnPosition returns the append position for a new column on b.
func NextColumnPosition(b Board) int {
	positions := make([]int, len(b.Columns))
	for i, col := range b.Columns {
		positions[i] = col.Position
	}
	return NextPosition(positions)
}

// NextCardPosition returns the append position for a new card in col.
func NextCardPosition(col Column) int {
	positions := make([]int, len(col.Cards))
	for i, card := range col.Cards {
		positions[i] = card.Position
	}
	return NextPosition(positions)
}
