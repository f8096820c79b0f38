package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrTimestamp is returned when a timestamp cannot be parsed.
var ErrTimestamp = errors.New("unparseable timestamp")

// ResolutionLayout is the layout of resolution dates exported by the test
// management tool, e.g. 2024-03-01T10:15:30.123+0100.
const ResolutionLayout = "2006-01-02T15:04:05.999999999-0700"

// ParseTimestamp parses a resolution or release date. The export layout is
// tried first, then any layout dateparse recognizes. Zone-less values are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrTimestamp)
	}
	if t, err := time.Parse(ResolutionLayout, s); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrTimestamp, s, err)
	}
	return t, nil
}

type latestEntry[T any] struct {
	at    time.Time
	value T
}

// LatestSelector keeps, per key, the value offered with the greatest
// timestamp. On equal timestamps the first value offered is kept.
type LatestSelector[T any] struct {
	entries map[string]latestEntry[T]
}

// NewLatestSelector returns an empty selector.
func NewLatestSelector[T any]() *LatestSelector[T] {
	return &LatestSelector[T]{entries: make(map[string]latestEntry[T])}
}

// Offer records v for key if it is strictly newer than the current value.
// It reports whether v was kept.
func (s *LatestSelector[T]) Offer(key string, at time.Time, v T) bool {
	cur, ok := s.entries[key]
	if ok && !at.After(cur.at) {
		return false
	}
	s.entries[key] = latestEntry[T]{at: at, value: v}
	return true
}

// Get returns the value kept for key.
func (s *LatestSelector[T]) Get(key string) (T, time.Time, bool) {
	e, ok := s.entries[key]
	return e.value, e.at, ok
}

// Keys returns all keys in sorted order.
func (s *LatestSelector[T]) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the kept values keyed by key.
func (s *LatestSelector[T]) Values() map[string]T {
	out := make(map[string]T, len(s.entries))
	for k, e := range s.entries {
		out[k] = e.value
	}
	return out
}
