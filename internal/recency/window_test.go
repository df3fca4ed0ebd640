package recency

import (
	"testing"
	"time"
)

var refNow = time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

func TestWindow_Contains(t *testing.T) {
	t.Parallel()

	w := NewWindow(refNow, 24*time.Hour)

	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{name: "one hour ago", ts: refNow.Add(-time.Hour), want: true},
		{name: "exactly 24h", ts: refNow.Add(-24 * time.Hour), want: true},
		{name: "24h and one second", ts: refNow.Add(-24*time.Hour - time.Second), want: false},
		{name: "half second past boundary", ts: refNow.Add(-24*time.Hour - 500*time.Millisecond), want: false},
		{name: "several days", ts: refNow.Add(-72 * time.Hour), want: false},
		{name: "future", ts: refNow.Add(time.Hour), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := w.Contains(tt.ts); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.ts, got, tt.want)
			}
		})
	}
}

func TestNewWindow_TruncatesNow(t *testing.T) {
	t.Parallel()

	w := NewWindow(refNow.Add(900*time.Millisecond), time.Hour)
	if !w.Now().Equal(refNow) {
		t.Errorf("Expected now truncated to %v, got %v", refNow, w.Now())
	}
	if w.Span() != time.Hour {
		t.Errorf("Expected span 1h, got %v", w.Span())
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "offset with millis",
			input: "2024-01-02T07:00:00.123-05:00",
			want:  time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "zulu",
			input: "2024-01-02T12:00:00Z",
			want:  refNow,
		},
		{
			name:  "naive with fraction",
			input: "2024-01-02T12:00:00.999",
			want:  refNow,
		},
		{
			name:    "garbage",
			input:   "yesterday",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTimestamp(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestamp() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

type stamped struct {
	name string
	at   string
}

func stampOf(s stamped) string { return s.at }

func hoursAgo(h int) string {
	return refNow.Add(-time.Duration(h) * time.Hour).Format(time.RFC3339)
}

func TestSelect_SortedStopsAtFirstOldItem(t *testing.T) {
	t.Parallel()

	w := NewWindow(refNow, 24*time.Hour)
	items := []stamped{
		{"a", hoursAgo(1)},
		{"b", hoursAgo(5)},
		{"c", hoursAgo(30)},
		{"d", hoursAgo(2)}, // would pass, but must never be evaluated
		{"e", "not a timestamp"},
	}

	got, res, err := Select(w, items, true, stampOf)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(got) != 2 || got[0].name != "a" || got[1].name != "b" {
		t.Errorf("Expected maximal prefix [a b], got %+v", got)
	}
	if res.Evaluated != 3 {
		t.Errorf("Expected 3 evaluations (early exit), got %d", res.Evaluated)
	}
	if !res.Stopped {
		t.Error("Expected Stopped to be true")
	}
}

func TestSelect_FullScan(t *testing.T) {
	t.Parallel()

	w := NewWindow(refNow, 24*time.Hour)
	items := []stamped{
		{"a", hoursAgo(1)},
		{"b", hoursAgo(30)},
		{"c", hoursAgo(2)},
	}

	got, res, err := Select(w, items, false, stampOf)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(got) != 2 || got[0].name != "a" || got[1].name != "c" {
		t.Errorf("Expected [a c], got %+v", got)
	}
	if res.Evaluated != 3 || res.Stopped {
		t.Errorf("Expected full scan of 3 items, got %+v", res)
	}
	if res.OrderViolations != 1 {
		t.Errorf("Expected 1 order violation, got %d", res.OrderViolations)
	}
}

func TestSelect_AllInWindow(t *testing.T) {
	t.Parallel()

	w := NewWindow(refNow, 24*time.Hour)
	items := []stamped{{"a", hoursAgo(1)}, {"b", hoursAgo(2)}}

	got, res, err := Select(w, items, true, stampOf)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(got) != 2 || res.Stopped || res.OrderViolations != 0 {
		t.Errorf("Unexpected result %+v / %+v", got, res)
	}
}

func TestSelect_InvalidTimestamp(t *testing.T) {
	t.Parallel()

	w := NewWindow(refNow, 24*time.Hour)
	if _, _, err := Select(w, []stamped{{"x", "nope"}}, true, stampOf); err == nil {
		t.Error("Expected error for invalid timestamp")
	}
}

func TestSequence(t *testing.T) {
	t.Parallel()

	var s Sequence
	if !s.Next(refNow) {
		t.Error("First element is always in order")
	}
	if !s.Next(refNow) {
		t.Error("Equal timestamps are in order")
	}
	if !s.Next(refNow.Add(-time.Minute)) {
		t.Error("Older timestamp is in order")
	}
	if s.Next(refNow) {
		t.Error("Newer timestamp must be reported out of order")
	}
}
