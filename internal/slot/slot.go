// Package slot implements the slot codec: the canonical representation of a
// fixed-width time slot as the absolute instant at which it starts, and the
// conversions between that key and a wall-clock (date, minute-of-day) pair.
//
// All calendar arithmetic is done in UTC. A Key carries no timezone; clients
// that render local grids convert on their side.
package slot

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrInvalidInput is returned for out-of-range minutes, impossible calendar
// dates, malformed slot text, and (in strict mode) misaligned slots.
var ErrInvalidInput = errors.New("invalid slot input")

// MinutesPerDay bounds minute-of-day values to [0, MinutesPerDay).
const MinutesPerDay = 24 * 60

// Key is a slot's start instant in Unix seconds (UTC). Integer order is
// chronological order.
type Key int64

// KeyOf returns the key for t, dropping sub-second precision.
func KeyOf(t time.Time) Key { return Key(t.Unix()) }

// Time returns the slot start as a UTC time.
func (k Key) Time() time.Time { return time.Unix(int64(k), 0).UTC() }

// String renders the key as RFC 3339 in UTC, e.g. "2025-01-15T09:15:00Z".
func (k Key) String() string { return k.Time().Format(time.RFC3339) }

// MarshalText implements encoding.TextMarshaler so keys serialize as RFC 3339
// strings, both as JSON values and as JSON object keys.
func (k Key) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText accepts any RFC 3339 timestamp with whole-minute precision.
// Granularity checks are the codec's job, not the decoder's.
func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := parseText(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func parseText(s string) (Key, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an RFC 3339 timestamp", ErrInvalidInput, s)
	}
	if t.Second() != 0 || t.Nanosecond() != 0 {
		return 0, fmt.Errorf("%w: %q has sub-minute precision", ErrInvalidInput, s)
	}
	return KeyOf(t), nil
}

// Set is a sorted, duplicate-free list of keys. The zero value is the empty
// set. Build sets with NewSet so the invariant holds.
type Set []Key

// NewSet returns the sorted, deduplicated set of keys.
func NewSet(keys ...Key) Set {
	out := make(Set, 0, len(keys))
	out = append(out, keys...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, k := range out {
		if i > 0 && k == out[n-1] {
			continue
		}
		out[n] = k
		n++
	}
	return out[:n]
}

// Contains reports whether k is a member of s.
func (s Set) Contains(k Key) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= k })
	return i < len(s) && s[i] == k
}

// Equal reports whether s and o hold the same keys.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Diff walks both sorted sets once and reports the keys only in s (removed)
// and the keys only in next (added). Keys common to both are untouched.
func (s Set) Diff(next Set) (removed, added []Key) {
	i, j := 0, 0
	for i < len(s) && j < len(next) {
		switch {
		case s[i] == next[j]:
			i++
			j++
		case s[i] < next[j]:
			removed = append(removed, s[i])
			i++
		default:
			added = append(added, next[j])
			j++
		}
	}
	removed = append(removed, s[i:]...)
	added = append(added, next[j:]...)
	return removed, added
}

// Strings renders every key in RFC 3339 form.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, k := range s {
		out[i] = k.String()
	}
	return out
}
