package route

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DuplicatePatternError is returned by Matcher.Add when a structurally
// identical pattern is already registered.
type DuplicatePatternError struct {
	Pattern string
}

func (e *DuplicatePatternError) Error() string {
	return fmt.Sprintf("route: duplicate pattern %q", e.Pattern)
}

// ErrEmpty is re-exported for callers that only care about the sentinel.
var ErrEmpty = ErrEmptyPattern

// patternEntry pairs a parsed Pattern with an opaque handler value. The
// handler is stored as `any` so this package has no dependency on the
// server/hook packages that define the concrete handler signature.
type patternEntry struct {
	pattern Pattern
	handler any
}

// regexResolution caches one path's outcome against the regex tier, so a
// hot path that only ever matches (or fails to match) a regex route does
// not re-run every compiled expression on each request.
type regexResolution struct {
	handler any
	params  Params
	ok      bool
}

// Matcher holds the three disjoint route collections described in the
// spec's data model: static (exact key lookup), dynamic (linear scan, no
// regex segments), and regex (linear scan, at least one regex segment).
// It is append-only after a server starts; Add takes an exclusive lock,
// Resolve only a read lock.
//
// The regex tier additionally memoizes path -> resolution in an LRU cache,
// grounded on the ecosystem's hashicorp/golang-lru: regex matching is the
// only tier whose cost scales with route count, so it is the only one
// worth memoizing. The cache never changes Resolve's three-tier lookup
// order or result, only how often the regex scan itself runs.
type Matcher struct {
	mu      sync.RWMutex
	static  map[string]any
	dynamic []patternEntry
	regex   []patternEntry

	regexCache *lru.Cache[string, regexResolution]
}

// NewMatcher returns an empty Matcher with a regex-tier result cache sized
// for 1024 distinct paths.
func NewMatcher() *Matcher {
	return NewMatcherWithCacheSize(1024)
}

// NewMatcherWithCacheSize is NewMatcher with an explicit regex-tier cache
// capacity; pass 0 to disable memoization entirely.
func NewMatcherWithCacheSize(cacheSize int) *Matcher {
	m := &Matcher{static: make(map[string]any)}
	if cacheSize > 0 {
		m.regexCache, _ = lru.New[string, regexResolution](cacheSize)
	}
	return m
}

// Add parses pattern and installs it with handler into the appropriate
// tier. It rejects an empty pattern, an unparseable regex segment, and any
// structural duplicate.
func (m *Matcher) Add(pattern string, handler any) error {
	parsed, err := Parse(pattern)
	if err != nil {
		var rxErr *InvalidRegexError
		if errors.As(err, &rxErr) {
			return err
		}
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if parsed.IsStatic() {
		if _, exists := m.static[pattern]; exists {
			return &DuplicatePatternError{Pattern: pattern}
		}
		m.static[pattern] = handler
		if m.regexCache != nil {
			m.regexCache.Purge()
		}
		return nil
	}

	tier := &m.regex
	if parsed.IsDynamic() {
		tier = &m.dynamic
	}
	for _, entry := range *tier {
		if entry.pattern.Equal(parsed) {
			return &DuplicatePatternError{Pattern: parsed.String()}
		}
	}
	*tier = append(*tier, patternEntry{pattern: parsed, handler: handler})
	if m.regexCache != nil {
		m.regexCache.Purge()
	}
	return nil
}

// Resolve looks up a handler for path in lookup order: exact static match,
// then dynamic (registration order), then regex (registration order). It
// returns the matched handler and captured params, or (nil, nil, false) on
// no match.
func (m *Matcher) Resolve(path string) (handler any, params Params, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if h, exists := m.static[path]; exists {
		return h, Params{}, true
	}
	for _, entry := range m.dynamic {
		if p, matched := entry.pattern.Match(path); matched {
			return entry.handler, p, true
		}
	}
	if m.regexCache != nil {
		if cached, hit := m.regexCache.Get(path); hit {
			return cached.handler, cached.params, cached.ok
		}
	}

	for _, entry := range m.regex {
		if p, matched := entry.pattern.Match(path); matched {
			if m.regexCache != nil {
				m.regexCache.Add(path, regexResolution{handler: entry.handler, params: p, ok: true})
			}
			return entry.handler, p, true
		}
	}
	if m.regexCache != nil {
		m.regexCache.Add(path, regexResolution{ok: false})
	}
	return nil, nil, false
}
