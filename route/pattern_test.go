package route

import (
	"errors"
	"testing"
)

func TestParseEmptyAndRoot(t *testing.T) {
	if _, err := Parse(""); !errors.Is(err, ErrEmptyPattern) {
		t.Fatalf("Parse(\"\") error = %v, want ErrEmptyPattern", err)
	}

	p, err := Parse("/")
	if err != nil {
		t.Fatalf("Parse(\"/\") error = %v", err)
	}
	if len(p.Segments) != 0 {
		t.Fatalf("Parse(\"/\") segments = %v, want empty", p.Segments)
	}
}

func TestMatchStatic(t *testing.T) {
	p, err := Parse("/a/b")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Match("/a/b"); !ok {
		t.Fatal("expected /a/b to match")
	}
	if _, ok := p.Match("/a/b/c"); ok {
		t.Fatal("expected /a/b/c to not match")
	}
}

func TestMatchElidesTrailingAndDoubledSlashes(t *testing.T) {
	p, err := Parse("/a/b")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Match("/a/b/"); !ok {
		t.Fatal("expected a trailing slash to be elided, matching /a/b")
	}
	if _, ok := p.Match("/a//b"); !ok {
		t.Fatal("expected a doubled slash to be elided, matching /a/b")
	}
}

func TestMatchDynamic(t *testing.T) {
	p, err := Parse("/u/{id}")
	if err != nil {
		t.Fatal(err)
	}
	params, ok := p.Match("/u/42")
	if !ok || params["id"] != "42" {
		t.Fatalf("Match(/u/42) = %v, %v", params, ok)
	}
	if _, ok := p.Match("/u/"); ok {
		t.Fatal("expected /u/ to not match (empty dynamic segment)")
	}
	if _, ok := p.Match("/u/42/x"); ok {
		t.Fatal("expected /u/42/x to not match")
	}
}

func TestMatchRegexTail(t *testing.T) {
	p, err := Parse("/files/{path:^.*$}")
	if err != nil {
		t.Fatal(err)
	}
	params, ok := p.Match("/files/a/b/c")
	if !ok || params["path"] != "a/b/c" {
		t.Fatalf("Match(/files/a/b/c) = %v, %v", params, ok)
	}
	if _, ok := p.Match("/files"); ok {
		t.Fatal("expected /files to not match (no tail value)")
	}
}

func TestRegexTailNonGreedyPosition(t *testing.T) {
	// A regex segment that is not the tail matches exactly one component.
	p, err := Parse("/u/{id:[0-9]+}/profile")
	if err != nil {
		t.Fatal(err)
	}
	params, ok := p.Match("/u/42/profile")
	if !ok || params["id"] != "42" {
		t.Fatalf("Match(/u/42/profile) = %v, %v", params, ok)
	}
	if _, ok := p.Match("/u/abc/profile"); ok {
		t.Fatal("expected non-numeric id to not match")
	}
}

func TestInvalidRegex(t *testing.T) {
	_, err := Parse("{x:[a-}")
	var rxErr *InvalidRegexError
	if !errors.As(err, &rxErr) {
		t.Fatalf("Parse error = %v, want *InvalidRegexError", err)
	}
}

func TestPatternEqualityAndString(t *testing.T) {
	a, _ := Parse("/users/{id}")
	b, _ := Parse("/users/{id}")
	if !a.Equal(b) {
		t.Fatal("expected structurally identical patterns to compare equal")
	}
	if a.String() != "/users/{id}" {
		t.Fatalf("String() = %q", a.String())
	}
}
