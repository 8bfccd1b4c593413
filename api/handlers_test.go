package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/KlausAbut/flowboard-app/domain"
	"github.com/KlausAbut/flowboard-app/storage"
)

type fakeNotifier struct {
	boards []string
}

func (f *fakeNotifier) BoardChanged(ctx context.Context, boardID string) {
	f.boards = append(f.boards, boardID)
}

type testEnv struct {
	e        *echo.Echo
	store    *storage.Memory
	auth     *Auth
	notifier *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		e:        echo.New(),
		store:    storage.NewMemory(),
		auth:     NewAuth([]byte("test-secret")),
		notifier: &fakeNotifier{},
	}
	logger := log.New()
	Register(env.e, env.store, env.auth, env.notifier, logger)
	return env
}

func (env *testEnv) tokenFor(t *testing.T, name string) string {
	t.Helper()
	user, err := env.store.CreateUser(context.Background(), name+"@flowboard.test", name, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := env.auth.SignToken(user.ID)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (env *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestRegisterAndDuplicate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/auth/register",
		`{"email":"a@x.com","name":"A","password":"p"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp userResponse
	decode(t, rec, &resp)
	if resp.User.ID == "" || resp.User.Email != "a@x.com" || resp.User.Name != "A" {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password leaked in response: %s", rec.Body.String())
	}
	var sawCookie bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == tokenCookieName && cookie.HttpOnly && cookie.Value != "" {
			sawCookie = true
		}
	}
	if !sawCookie {
		t.Fatal("expected httpOnly session cookie on register")
	}

	rec = env.do(http.MethodPost, "/auth/register",
		`{"email":"a@x.com","name":"B","password":"q"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var errResp map[string]string
	decode(t, rec, &errResp)
	if errResp["error"] != "user_exists" {
		t.Fatalf("expected user_exists, got %q", errResp["error"])
	}
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/auth/register", `{"email":"a@x.com"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var errResp map[string]string
	decode(t, rec, &errResp)
	if errResp["error"] != "missing_fields" {
		t.Fatalf("expected missing_fields, got %q", errResp["error"])
	}
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/auth/register",
		`{"email":"a@x.com","name":"A","password":"p"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"p"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestBoardRequiresCredential(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/board/b1", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var errResp map[string]string
	decode(t, rec, &errResp)
	if errResp["error"] != "unauthenticated" {
		t.Fatalf("expected unauthenticated, got %q", errResp["error"])
	}

	token := env.tokenFor(t, "a")
	rec = env.do(http.MethodGet, "/board/b1", "", token+"tampered")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	decode(t, rec, &errResp)
	if errResp["error"] != "invalid_token" {
		t.Fatalf("expected invalid_token, got %q", errResp["error"])
	}
}

func TestCookieCredentialTakesPrecedence(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "a")
	boardID := env.store.SeedBoard("demo", "Todo")

	req := httptest.NewRequest(http.MethodGet, "/board/"+boardID, nil)
	req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected valid cookie to win over bad bearer, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBoardUnknownSubject(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.auth.SignToken("ghost")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec := env.do(http.MethodGet, "/board/b1", "", token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var errResp map[string]string
	decode(t, rec, &errResp)
	if errResp["error"] != "user_not_found" {
		t.Fatalf("expected user_not_found, got %q", errResp["error"])
	}
}

func TestGetBoardNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "a")
	rec := env.do(http.MethodGet, "/board/missing", "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var errResp map[string]string
	decode(t, rec, &errResp)
	if errResp["error"] != "board_not_found" {
		t.Fatalf("expected board_not_found, got %q", errResp["error"])
	}
}

func TestCreateFirstColumnGetsPositionZero(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "a")
	boardID := env.store.SeedBoard("demo")

	rec := env.do(http.MethodPost, "/api/columns",
		`{"boardId":"`+boardID+`","title":"Todo"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var col domain.Column
	decode(t, rec, &col)
	if col.ID == "" || col.Title != "Todo" || col.Position != 0 {
		t.Fatalf("unexpected column: %+v", col)
	}
	if len(env.notifier.boards) != 1 || env.notifier.boards[0] != boardID {
		t.Fatalf("expected one notification for %s, got %v", boardID, env.notifier.boards)
	}
}

func TestCardAppendAndMoveAcrossColumns(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "a")
	boardID := env.store.SeedBoard("demo", "Todo", "Doing")
	cols := env.store.ColumnIDs(boardID)

	var first domain.Card
	rec := env.do(http.MethodPost, "/api/cards",
		`{"columnId":"`+cols[0]+`","title":"one","description":""}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card: %d: %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &first)
	if first.Position != 0 {
		t.Fatalf("expected first card at 0, got %d", first.Position)
	}

	var second domain.Card
	rec = env.do(http.MethodPost, "/api/cards",
		`{"columnId":"`+cols[0]+`","title":"two","description":""}`, token)
	decode(t, rec, &second)
	if second.Position != 1 {
		t.Fatalf("expected second card at 1, got %d", second.Position)
	}

	rec = env.do(http.MethodPost, "/api/cards",
		`{"columnId":"`+cols[1]+`","title":"other","description":""}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card: %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/cards/move",
		`{"cardId":"`+first.ID+`","toColumnId":"`+cols[1]+`"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("move: %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/board/"+boardID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get board: %d", rec.Code)
	}
	var board domain.Board
	decode(t, rec, &board)
	src := board.FindColumn(cols[0])
	if len(src.Cards) != 1 || src.Cards[0].ID != second.ID {
		t.Fatalf("source column not pruned: %+v", src.Cards)
	}
	dst := board.FindColumn(cols[1])
	if len(dst.Cards) != 2 || dst.Cards[1].ID != first.ID || dst.Cards[1].Position != 1 {
		t.Fatalf("moved card wrong in destination: %+v", dst.Cards)
	}
}

func TestMoveCardUnknownTargets(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "a")
	boardID := env.store.SeedBoard("demo", "Todo")
	cols := env.store.ColumnIDs(boardID)

	rec := env.do(http.MethodPost, "/api/cards/move",
		`{"cardId":"nope","toColumnId":"`+cols[0]+`"}`, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown card, got %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/cards/move",
		`{"cardId":"nope","toColumnId":"nope"}`, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown column, got %d", rec.Code)
	}
}

func TestListUsersExcludesSecrets(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "a")
	rec := env.do(http.MethodGet, "/users", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
}

func TestHealthcheck(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/healthcheck", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	decode(t, rec, &resp)
	if resp["status"] != "ok" {
		t.Fatalf("unexpected healthcheck body: %v", resp)
	}
}
