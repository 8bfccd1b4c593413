package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type fakeAuth struct {
	subject string
	err     error
	seen    []string
}

func (f *fakeAuth) VerifyToken(token string) (string, error) {
	f.seen = append(f.seen, token)
	if f.err != nil {
		return "", f.err
	}
	return f.subject, nil
}

type flushRecorder struct{ *httptest.ResponseRecorder }

func (flushRecorder) Flush() {}

func TestStreamRequiresCredential(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/stream?board=b1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := streamBoard(NewBroker(), &fakeAuth{subject: "u1"})(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unauthenticated") {
		t.Fatalf("expected unauthenticated, got %s", rec.Body.String())
	}
}

func TestStreamRejectsBadCredentialBeforeOpen(t *testing.T) {
	e := echo.New()
	auth := &fakeAuth{err: errors.New("bad signature")}
	broker := NewBroker()
	req := httptest.NewRequest(http.MethodGet, "/stream?board=b1&token=tampered", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := streamBoard(broker, auth)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_token") {
		t.Fatalf("expected invalid_token, got %s", rec.Body.String())
	}
	if broker.SubscriberCount("b1") != 0 {
		t.Fatal("rejected connection must not be registered")
	}
}

func TestStreamHandshakeQueryTokenWinsOverCookie(t *testing.T) {
	e := echo.New()
	auth := &fakeAuth{subject: "u1"}
	req := httptest.NewRequest(http.MethodGet, "/stream?board=b1&token=query-token", nil)
	req.Header.Set("Cookie", "token=cookie-token")
	rec := flushRecorder{httptest.NewRecorder()}
	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)
	c := e.NewContext(req, rec)

	errCh := make(chan error, 1)
	go func() { errCh <- streamBoard(NewBroker(), auth)(c) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(auth.seen) != 1 || auth.seen[0] != "query-token" {
		t.Fatalf("expected query token verified, got %v", auth.seen)
	}
}

func TestStreamHandshakeFallsBackToCookieHeader(t *testing.T) {
	e := echo.New()
	auth := &fakeAuth{subject: "u1"}
	req := httptest.NewRequest(http.MethodGet, "/stream?board=b1", nil)
	req.Header.Set("Cookie", "other=x; token=cookie-token")
	rec := flushRecorder{httptest.NewRecorder()}
	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)
	c := e.NewContext(req, rec)

	errCh := make(chan error, 1)
	go func() { errCh <- streamBoard(NewBroker(), auth)(c) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(auth.seen) != 1 || auth.seen[0] != "cookie-token" {
		t.Fatalf("expected cookie token verified, got %v", auth.seen)
	}
}

func TestStreamDeliversInvalidationAndCleansUp(t *testing.T) {
	e := echo.New()
	auth := &fakeAuth{subject: "u1"}
	broker := NewBroker()
	req := httptest.NewRequest(http.MethodGet, "/stream?board=b1&token=t", nil)
	rec := flushRecorder{httptest.NewRecorder()}
	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)
	c := e.NewContext(req, rec)

	errCh := make(chan error, 1)
	go func() { errCh <- streamBoard(broker, auth)(c) }()

	deadline := time.Now().Add(time.Second)
	for broker.SubscriberCount("b1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	broker.Broadcast("b1")
	time.Sleep(50 * time.Millisecond)
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("handler error: %v", err)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, ":ok\n\n") {
		t.Fatalf("expected priming comment, got %q", body)
	}
	if !strings.Contains(body, `data: {"boardId":"b1"}`) {
		t.Fatalf("expected invalidation event, got %q", body)
	}
	if broker.SubscriberCount("b1") != 0 {
		t.Fatal("subscriber not removed on disconnect")
	}
}
