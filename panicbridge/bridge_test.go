package panicbridge

import (
	"testing"

	"github.com/kestrelhttp/kestrel/reqctx"
)

func TestCaptureDispatchesToRegisteredHandler(t *testing.T) {
	EnsureInitialized()

	done := make(chan reqctx.PanicInfo, 1)
	SetHandler(func(info reqctx.PanicInfo, ctx *reqctx.Context) {
		done <- info
	})
	defer SetHandler(nil)

	ctx := reqctx.New(nil, nil, nil, nil)

	func() {
		defer func() {
			if r := recover(); r != nil {
				_, doneCh := Capture(r, ctx)
				<-doneCh
			}
		}()
		panic("boom")
	}()

	info := <-done
	if info.Message != "boom" {
		t.Fatalf("info.Message = %q, want boom", info.Message)
	}
	if got, ok := ctx.PanicInfo(); !ok || got.Message != "boom" {
		t.Fatalf("ctx.PanicInfo() = %v, %v", got, ok)
	}
}

func TestEnsureInitializedIdempotent(t *testing.T) {
	EnsureInitialized()
	EnsureInitialized() // must not block or panic on a second call
}
