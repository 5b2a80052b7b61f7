package slot

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for _, g := range []time.Duration{15 * time.Minute, time.Hour} {
		c := MustCodec(g, true)
		step := int(g / time.Minute)
		dates := []Date{
			{2024, time.February, 29},
			{2025, time.January, 1},
			{2025, time.December, 31},
			{1999, time.June, 15},
		}
		for _, d := range dates {
			for m := 0; m < MinutesPerDay; m += step {
				k, err := c.Encode(d, m)
				if err != nil {
					t.Fatalf("Encode(%v, %d): %v", d, m, err)
				}
				gd, gm := c.Decode(k)
				if gd != d || gm != m {
					t.Fatalf("Decode(Encode(%v, %d)) = (%v, %d)", d, m, gd, gm)
				}
			}
		}
	}
}

func TestEncode_RejectsInvalidInput(t *testing.T) {
	c := MustCodec(15*time.Minute, true)
	d := Date{2025, time.March, 3}

	cases := []struct {
		name string
		date Date
		min  int
	}{
		{"negative minute", d, -1},
		{"end of day", d, MinutesPerDay},
		{"off grid", d, 7},
		{"impossible date", Date{2025, time.February, 30}, 0},
	}
	for _, tc := range cases {
		if _, err := c.Encode(tc.date, tc.min); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: want ErrInvalidInput, got %v", tc.name, err)
		}
	}

	lax := MustCodec(15*time.Minute, false)
	k, err := lax.Encode(d, 7)
	if err != nil {
		t.Fatalf("non-strict codec should accept off-grid minute: %v", err)
	}
	if _, m := lax.Decode(k); m != 7 {
		t.Fatalf("want minute 7, got %d", m)
	}
}

func TestNewCodec_Granularity(t *testing.T) {
	for _, g := range []time.Duration{0, 30 * time.Second, 7 * time.Minute, 90*time.Second + time.Minute} {
		if _, err := NewCodec(g, true); err == nil {
			t.Errorf("NewCodec(%s) should fail", g)
		}
	}
	c, err := NewCodec(time.Hour, false)
	if err != nil {
		t.Fatalf("NewCodec(1h): %v", err)
	}
	if c.Granularity() != time.Hour || c.Strict() {
		t.Fatalf("unexpected codec %+v", c)
	}
}

func TestParse_NormalizesOffsetsAndChecksGrid(t *testing.T) {
	c := MustCodec(15*time.Minute, true)

	k, err := c.Parse("2025-01-15T10:15:00+01:00")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := k.String(); got != "2025-01-15T09:15:00Z" {
		t.Fatalf("want UTC normalization, got %s", got)
	}

	for _, bad := range []string{"", "tomorrow", "2025-01-15T09:10:00Z", "2025-01-15T09:15:30Z"} {
		if _, err := c.Parse(bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Parse(%q): want ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestParseAll_DedupesAndSorts(t *testing.T) {
	c := MustCodec(15*time.Minute, true)
	set, err := c.ParseAll([]string{
		"2025-01-15T09:30:00Z",
		"2025-01-15T09:00:00Z",
		"2025-01-15T09:30:00Z",
		"2025-01-15T10:30:00+01:00",
	})
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	want := []string{"2025-01-15T09:00:00Z", "2025-01-15T09:30:00Z"}
	got := set.Strings()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	if _, err := c.ParseAll([]string{"2025-01-15T09:00:00Z", "nope"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestSet_Diff(t *testing.T) {
	a, b, c, d := Key(60), Key(120), Key(180), Key(240)
	removed, added := NewSet(a, b, d).Diff(NewSet(b, c, d))
	if len(removed) != 1 || removed[0] != a {
		t.Fatalf("removed = %v", removed)
	}
	if len(added) != 1 || added[0] != c {
		t.Fatalf("added = %v", added)
	}

	removed, added = Set(nil).Diff(NewSet(a))
	if len(removed) != 0 || len(added) != 1 {
		t.Fatalf("from empty: removed=%v added=%v", removed, added)
	}
}

func TestSet_JSON(t *testing.T) {
	s := NewSet(KeyOf(time.Date(2025, 1, 15, 9, 15, 0, 0, time.UTC)))
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `["2025-01-15T09:15:00Z"]` {
		t.Fatalf("got %s", b)
	}
	var back Set
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(s) {
		t.Fatalf("got %v, want %v", back, s)
	}

	counts := map[Key]int{s[0]: 2}
	b, err = json.Marshal(counts)
	if err != nil {
		t.Fatalf("marshal map: %v", err)
	}
	if string(b) != `{"2025-01-15T09:15:00Z":2}` {
		t.Fatalf("got %s", b)
	}
}

func TestInWindowAndFilter(t *testing.T) {
	c := MustCodec(15*time.Minute, true)
	day := Date{2025, time.January, 15}
	at := func(d Date, m int) Key {
		k, err := c.Encode(d, m)
		if err != nil {
			t.Fatal(err)
		}
		return k
	}
	w := &Window{Start: 9 * 60, End: 10 * 60}

	if !InWindow(at(day, 9*60), w) || !InWindow(at(day, 9*60+45), w) {
		t.Fatal("slots inside window rejected")
	}
	if InWindow(at(day, 10*60), w) || InWindow(at(day, 8*60+45), w) {
		t.Fatal("window end must be exclusive and start inclusive")
	}
	if !InWindow(at(day, 23*60), nil) {
		t.Fatal("nil window must admit everything")
	}

	start := day.Midnight()
	end := Date{2025, time.January, 16}.Midnight()
	nb, na := DateBounds(&start, &end)
	f := Filter{Window: w, NotBefore: nb, NotAfter: na}
	if !f.Allows(at(Date{2025, time.January, 16}, 9*60)) {
		t.Fatal("end date must be inclusive")
	}
	if f.Allows(at(Date{2025, time.January, 17}, 9*60)) {
		t.Fatal("day after end date must be excluded")
	}
	if f.Allows(at(Date{2025, time.January, 14}, 9*60)) {
		t.Fatal("day before start date must be excluded")
	}
}

func TestWindow_Validate(t *testing.T) {
	for _, w := range []Window{{-1, 60}, {60, 60}, {120, 60}, {0, MinutesPerDay + 1}} {
		if err := w.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Validate(%+v): want ErrInvalidInput, got %v", w, err)
		}
	}
	if err := (Window{0, MinutesPerDay}).Validate(); err != nil {
		t.Fatalf("full day window: %v", err)
	}
}

func TestDate_ParseAndValid(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil || !d.Valid() || d.String() != "2024-02-29" {
		t.Fatalf("ParseDate: %v %v", d, err)
	}
	if _, err := ParseDate("2025-02-30"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}
