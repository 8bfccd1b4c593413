package api

import (
	"io"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createColumnRequest struct {
	BoardID string `json:"boardId"`
	Title   string `json:"title"`
}

type createCardRequest struct {
	ColumnID    string `json:"columnId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type moveCardRequest struct {
	CardID     string `json:"cardId"`
	ToColumnID string `json:"toColumnId"`
}

// decodeBody strictly decodes a JSON request body, rejecting unknown fields
// and capping the accepted size.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
