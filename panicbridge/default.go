package panicbridge

import (
	"fmt"
	"os"

	"github.com/kestrelhttp/kestrel/reqctx"
)

// defaultStderrPanicHandler writes the panic record to stderr and builds a
// plain-text 500 response: the panic-info string, then a blank line and the
// request echo, per spec §6. Grounded on original_source's default_panic_hook
// (src/panic/fn.rs).
func defaultStderrPanicHandler(info reqctx.PanicInfo, ctx *reqctx.Context) {
	body := info.String()

	req := ctx.Request()
	resp := ctx.Response()
	if req != nil {
		body += "\n\n" + req.Method + " " + req.Path + "\n"
	}

	fmt.Fprintf(os.Stderr, "recovered panic remote_addr=%s\n%s\n", ctx.RemoteAddr(), body)

	resp.StatusCode = 500
	resp.Headers.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = []byte(body)

	_ = ctx.Send()
	ctx.Abort()
	ctx.Close()
}
