package slot

import (
	"fmt"
	"time"
)

// DefaultGranularity is the width of a slot on the default grid.
const DefaultGranularity = 15 * time.Minute

// Date is a calendar day in UTC.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the UTC calendar day of t.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidInput, s)
	}
	return DateOf(t), nil
}

// Midnight returns 00:00 UTC of the day.
func (d Date) Midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Valid reports whether d names a real calendar day (time.Date would
// otherwise silently normalize Feb 30 into March).
func (d Date) Valid() bool {
	return DateOf(d.Midnight()) == d
}

func (d Date) String() string { return d.Midnight().Format(time.DateOnly) }

// Codec converts between (date, minute-of-day) and slot keys on a fixed grid.
// The zero value is not usable; construct with NewCodec.
type Codec struct {
	granularity int // minutes
	strict      bool
}

// NewCodec returns a codec for the given slot width. The width must be a whole
// number of minutes that evenly divides a day. In strict mode, Encode and
// Parse reject minutes that are not on the grid.
func NewCodec(granularity time.Duration, strict bool) (Codec, error) {
	if granularity < time.Minute || granularity%time.Minute != 0 {
		return Codec{}, fmt.Errorf("%w: granularity %s must be a whole number of minutes", ErrInvalidInput, granularity)
	}
	mins := int(granularity / time.Minute)
	if MinutesPerDay%mins != 0 {
		return Codec{}, fmt.Errorf("%w: granularity %s must divide 24h", ErrInvalidInput, granularity)
	}
	return Codec{granularity: mins, strict: strict}, nil
}

// MustCodec is NewCodec that panics on error, for package-level defaults and tests.
func MustCodec(granularity time.Duration, strict bool) Codec {
	c, err := NewCodec(granularity, strict)
	if err != nil {
		panic(err)
	}
	return c
}

// Granularity returns the slot width.
func (c Codec) Granularity() time.Duration { return time.Duration(c.granularity) * time.Minute }

// Strict reports whether off-grid minutes are rejected.
func (c Codec) Strict() bool { return c.strict }

// Encode returns the key of the slot starting at minuteOfDay on date.
func (c Codec) Encode(date Date, minuteOfDay int) (Key, error) {
	if minuteOfDay < 0 || minuteOfDay >= MinutesPerDay {
		return 0, fmt.Errorf("%w: minute of day %d outside [0, %d)", ErrInvalidInput, minuteOfDay, MinutesPerDay)
	}
	if !date.Valid() {
		return 0, fmt.Errorf("%w: %04d-%02d-%02d is not a calendar date", ErrInvalidInput, date.Year, int(date.Month), date.Day)
	}
	if c.strict && minuteOfDay%c.granularity != 0 {
		return 0, fmt.Errorf("%w: minute of day %d is not a multiple of %d", ErrInvalidInput, minuteOfDay, c.granularity)
	}
	return KeyOf(date.Midnight().Add(time.Duration(minuteOfDay) * time.Minute)), nil
}

// Decode is the inverse of Encode.
func (c Codec) Decode(k Key) (Date, int) {
	return DateOf(k.Time()), MinuteOfDay(k)
}

// Parse reads an RFC 3339 timestamp (any offset) as a slot key and checks it
// against the grid.
func (c Codec) Parse(s string) (Key, error) {
	k, err := parseText(s)
	if err != nil {
		return 0, err
	}
	if err := c.Validate(k); err != nil {
		return 0, err
	}
	return k, nil
}

// Validate checks that k lies on the grid (strict mode only) and has whole-minute precision.
func (c Codec) Validate(k Key) error {
	if int64(k)%60 != 0 {
		return fmt.Errorf("%w: %s has sub-minute precision", ErrInvalidInput, k)
	}
	if c.strict && MinuteOfDay(k)%c.granularity != 0 {
		return fmt.Errorf("%w: %s is not aligned to %d-minute slots", ErrInvalidInput, k, c.granularity)
	}
	return nil
}

// ParseAll parses and validates every entry and returns the resulting set.
// The first invalid entry aborts with its index in the error.
func (c Codec) ParseAll(raw []string) (Set, error) {
	keys := make([]Key, 0, len(raw))
	for i, s := range raw {
		k, err := c.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("slots[%d]: %w", i, err)
		}
		keys = append(keys, k)
	}
	return NewSet(keys...), nil
}

// MinuteOfDay returns the UTC minute-of-day at which the slot starts.
func MinuteOfDay(k Key) int {
	t := k.Time()
	return t.Hour()*60 + t.Minute()
}
