package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/KlausAbut/flowboard-app/domain"
)

// APIError is a non-2xx response from the server, carrying the wire error
// kind when one was present.
type APIError struct {
	Status int
	Kind   string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Kind)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

type httpAPI struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func newHTTPAPI(baseURL, token string) *httpAPI {
	return &httpAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{},
	}
}

func (a *httpAPI) fetchBoard(ctx context.Context, boardID string) (domain.Board, error) {
	var board domain.Board
	if err := a.do(ctx, http.MethodGet, "/board/"+boardID, nil, &board); err != nil {
		return domain.Board{}, err
	}
	return board, nil
}

func (a *httpAPI) createColumn(ctx context.Context, boardID, title string) error {
	body := map[string]string{"boardId": boardID, "title": title}
	return a.do(ctx, http.MethodPost, "/api/columns", body, nil)
}

func (a *httpAPI) createCard(ctx context.Context, columnID, title, description string) error {
	body := map[string]string{"columnId": columnID, "title": title, "description": description}
	return a.do(ctx, http.MethodPost, "/api/cards", body, nil)
}

func (a *httpAPI) moveCard(ctx context.Context, cardID, toColumnID string) error {
	body := map[string]string{"cardId": cardID, "toColumnId": toColumnID}
	return a.do(ctx, http.MethodPost, "/api/cards/move", body, nil)
}

func (a *httpAPI) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var kind struct {
			Error string `json:"error"`
		}
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
			if json.Unmarshal(data, &kind) == nil {
				apiErr.Kind = kind.Error
			}
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
