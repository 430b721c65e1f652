package hook

import (
	"testing"

	"github.com/kestrelhttp/kestrel/reqctx"
)

func TestOrderedListPriorityStableSort(t *testing.T) {
	r := NewRegistry()
	var order []string

	r.RegisterRequestMiddleware(func(*reqctx.Context) { order = append(order, "p0-a") }, 0)
	r.RegisterRequestMiddleware(func(*reqctx.Context) { order = append(order, "p5") }, 5)
	r.RegisterRequestMiddleware(func(*reqctx.Context) { order = append(order, "p0-b") }, 0)
	r.RegisterRequestMiddleware(func(*reqctx.Context) { order = append(order, "p-1") }, -1)

	for _, mw := range r.RequestMiddleware() {
		mw(nil)
	}

	want := []string{"p5", "p0-a", "p0-b", "p-1"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestDefaultPanicHandlerAbsent(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.PanicHandler(); ok {
		t.Fatal("expected no panic handler registered by default")
	}
	r.SetPanicHandler(func(*reqctx.Context) {})
	if _, ok := r.PanicHandler(); !ok {
		t.Fatal("expected panic handler to be registered")
	}
}
