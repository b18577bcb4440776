package channels

import (
	"net"
	"testing"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

// serveInMemory runs handler on an in-memory listener and returns a dialer for clients.
func serveInMemory(t *testing.T, handler fasthttp.RequestHandler) fasthttp.DialFunc {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, handler)
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return func(addr string) (net.Conn, error) {
		return ln.Dial()
	}
}
