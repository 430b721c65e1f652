package route

import (
	"errors"
	"testing"
)

func TestMatcherDuplicateStatic(t *testing.T) {
	m := NewMatcher()
	if err := m.Add("/", "h1"); err != nil {
		t.Fatal(err)
	}
	err := m.Add("/", "h2")
	var dup *DuplicatePatternError
	if !errors.As(err, &dup) {
		t.Fatalf("second Add(\"/\") error = %v, want DuplicatePatternError", err)
	}
}

func TestMatcherDuplicateDynamic(t *testing.T) {
	m := NewMatcher()
	if err := m.Add("/u/{id}", "h1"); err != nil {
		t.Fatal(err)
	}
	var dup *DuplicatePatternError
	if err := m.Add("/u/{name}", "h2"); !errors.As(err, &dup) {
		t.Fatalf("structurally identical dynamic pattern error = %v", err)
	}
}

func TestMatcherEmptyAndInvalidRegex(t *testing.T) {
	m := NewMatcher()
	if err := m.Add("", "h"); !errors.Is(err, ErrEmptyPattern) {
		t.Fatalf("Add(\"\") error = %v", err)
	}
	var rxErr *InvalidRegexError
	if err := m.Add("{x:[a-}", "h"); !errors.As(err, &rxErr) {
		t.Fatalf("Add invalid regex error = %v", err)
	}
}

func TestMatcherResolveOrder(t *testing.T) {
	m := NewMatcher()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(m.Add("/users/static", "static-handler"))
	must(m.Add("/users/{id}", "dynamic-handler"))
	must(m.Add("/users/{id:[0-9]+}", "regex-handler"))

	if h, _, ok := m.Resolve("/users/static"); !ok || h != "static-handler" {
		t.Fatalf("static lookup = %v, %v", h, ok)
	}
	// "42" matches both the dynamic and regex tiers; dynamic is scanned
	// first and wins per the documented lookup order.
	if h, params, ok := m.Resolve("/users/42"); !ok || h != "dynamic-handler" || params["id"] != "42" {
		t.Fatalf("tiered lookup = %v, %v, %v", h, params, ok)
	}
	if _, _, ok := m.Resolve("/users/42/extra"); ok {
		t.Fatal("expected no match for extra path component")
	}
}

func TestMatcherRegexCacheHitMatchesColdLookup(t *testing.T) {
	m := NewMatcher()
	if err := m.Add("/files/{path:^.+$}", "regex-handler"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		h, params, ok := m.Resolve("/files/a/b/c")
		if !ok || h != "regex-handler" || params["path"] != "a/b/c" {
			t.Fatalf("iteration %d: lookup = %v, %v, %v", i, h, params, ok)
		}
	}
}

func TestMatcherRegexCacheCachesNegativeResult(t *testing.T) {
	m := NewMatcher()
	if err := m.Add("/files/{path:^[0-9]+$}", "regex-handler"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, _, ok := m.Resolve("/files/not-numeric"); ok {
			t.Fatalf("iteration %d: expected no match", i)
		}
	}
}

func TestMatcherZeroCacheSizeDisablesMemoization(t *testing.T) {
	m := NewMatcherWithCacheSize(0)
	if err := m.Add("/items/{id:[0-9]+}", "h"); err != nil {
		t.Fatal(err)
	}
	if h, params, ok := m.Resolve("/items/7"); !ok || h != "h" || params["id"] != "7" {
		t.Fatalf("lookup with cache disabled = %v, %v, %v", h, params, ok)
	}
}
