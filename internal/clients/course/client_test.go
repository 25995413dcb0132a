package course

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"

	"github.com/edustack/authuser/domain"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler) *Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: handler}
	go func() {
		_ = server.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = ln.Close()
	})

	return &Client{
		httpClient: &fasthttp.Client{
			Dial: func(string) (net.Conn, error) {
				return ln.Dial()
			},
		},
		baseURL: "http://course-service",
		timeout: time.Second,
		logger:  zap.NewNop(),
	}
}

func TestPurgeUserSendsDeleteForUser(t *testing.T) {
	userID := uuid.New()
	var calls int64
	var gotMethod, gotPath string

	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		atomic.AddInt64(&calls, 1)
		gotMethod = string(ctx.Method())
		gotPath = string(ctx.Path())
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	})

	if err := client.PurgeUser(context.Background(), userID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if gotMethod != fasthttp.MethodDelete {
		t.Errorf("method = %s, want DELETE", gotMethod)
	}
	if want := "/courses/users/" + userID.String(); gotPath != want {
		t.Errorf("path = %s, want %s", gotPath, want)
	}
}

func TestPurgeUserNonSuccessStatusIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	})

	err := client.PurgeUser(context.Background(), uuid.New())
	if !domain.IsDomainError(err, domain.ErrCodeUnavailable) {
		t.Fatalf("expected UNAVAILABLE, got %v", err)
	}
}

func TestPurgeUserRespectsCancelledContext(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.PurgeUser(ctx, uuid.New()); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
