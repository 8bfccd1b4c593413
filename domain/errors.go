package domain

import "errors"

// Sentinel errors shared between the store implementations and the API
// layer. Error strings double as the wire error kinds.
var (
	ErrBoardNotFound  = errors.New("board_not_found")
	ErrColumnNotFound = errors.New("column_not_found")
	ErrCardNotFound   = errors.New("card_not_found")
	ErrUserExists     = errors.New("user_exists")
	ErrUserNotFound   = errors.New("user_not_found")
)
