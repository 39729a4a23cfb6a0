package hrouter

import (
	"bytes"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tigerwill90/hrouter/internal/slogpretty"
)

func TestAbortHandler(t *testing.T) {
	m := Recovery(func(c *Context, err any) {
		c.Writer().WriteHeader(http.StatusInternalServerError)
		_, _ = c.Writer().Write([]byte(err.(error).Error()))
	})

	r := newTestRouter(t)
	r.MustAdd("/:foo", Chain(HandlerFunc(func(c *Context) error {
		func() { panic(http.ErrAbortHandler) }()
		return c.String(http.StatusOK, "foo")
	}), m))

	req := httptest.NewRequest(http.MethodPost, "/foo", nil)
	w := httptest.NewRecorder()

	defer func() {
		val := recover()
		require.NotNil(t, val)
		err := val.(error)
		require.NotNil(t, err)
		assert.ErrorIs(t, err, http.ErrAbortHandler)
	}()
	r.ServeHTTP(w, req)
}

func TestRecoveryMiddleware(t *testing.T) {
	woBuf := bytes.NewBuffer(nil)
	weBuf := bytes.NewBuffer(nil)

	const errMsg = "unexpected error"
	r := newTestRouter(t)
	r.MustAdd("/", Chain(HandlerFunc(func(c *Context) error {
		func() { panic(errMsg) }()
		return c.String(http.StatusOK, "foo")
	}), RecoveryWithLogHandler(&slogpretty.Handler{
		We:  weBuf,
		Wo:  woBuf,
		Lvl: slog.LevelDebug,
	})))

	w := serve(r, http.MethodPost, "/")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError)+"\n", w.Body.String())
	assert.Equal(t, 0, woBuf.Len())
	assert.Contains(t, weBuf.String(), "panic recovered")
	assert.Contains(t, weBuf.String(), errMsg)
}

func TestRecoveryMiddlewareAlreadyWritten(t *testing.T) {
	r := newTestRouter(t)
	r.MustAdd("/", Chain(HandlerFunc(func(c *Context) error {
		c.Writer().WriteHeader(http.StatusAccepted)
		panic("late failure")
	}), RecoveryWithLogHandler(slog.DiscardHandler)))

	w := serve(r, http.MethodGet, "/")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestRecoveryMiddlewareWithBrokenPipe(t *testing.T) {
	woBuf := bytes.NewBuffer(nil)
	weBuf := bytes.NewBuffer(nil)

	expectMsgs := map[syscall.Errno]string{
		syscall.EPIPE:      "broken pipe",
		syscall.ECONNRESET: "connection reset by peer",
	}

	for errno, expectMsg := range expectMsgs {
		t.Run(expectMsg, func(t *testing.T) {
			r := newTestRouter(t)
			r.MustAdd("/foo", Chain(HandlerFunc(func(c *Context) error {
				e := &net.OpError{Err: &os.SyscallError{Err: errno}}
				panic(e)
			}), RecoveryWithLogHandler(&slogpretty.Handler{
				We:  weBuf,
				Wo:  woBuf,
				Lvl: slog.LevelDebug,
			})))

			w := serve(r, http.MethodGet, "/foo")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Body.String())
			assert.Equal(t, 0, woBuf.Len())
			assert.NotEqual(t, 0, weBuf.Len())
			woBuf.Reset()
			weBuf.Reset()
		})
	}
}

func BenchmarkRecoveryMiddleware(b *testing.B) {
	r := newTestRouter(b)
	r.MustAdd("/:1/:2/:3", Chain(HandlerFunc(func(c *Context) error {
		panic("yolo")
	}), RecoveryWithLogHandler(slog.DiscardHandler)))

	req := httptest.NewRequest(http.MethodGet, "/foo/bar/baz", nil)
	w := new(mockResponseWriter)

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		r.ServeHTTP(w, req)
	}
}
