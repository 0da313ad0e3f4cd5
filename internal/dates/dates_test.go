package dates

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2025-09-01", want: "2025-09-01"},
		{in: "2025-12-31", want: "2025-12-31"},
		{in: "2025-13-01", wantErr: true},
		{in: "09/01/2025", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) error = nil, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     int
		wantStart string
		wantEnd   string
	}{
		{name: "september", year: 2025, month: 9, wantStart: "2025-09-01", wantEnd: "2025-09-30"},
		{name: "december rolls into next year", year: 2025, month: 12, wantStart: "2025-12-01", wantEnd: "2025-12-31"},
		{name: "february non-leap", year: 2025, month: 2, wantStart: "2025-02-01", wantEnd: "2025-02-28"},
		{name: "february leap", year: 2024, month: 2, wantStart: "2024-02-01", wantEnd: "2024-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := MonthRange(tt.year, tt.month)
			if err != nil {
				t.Fatalf("MonthRange() error: %v", err)
			}
			if r.Start != tt.wantStart || r.End != tt.wantEnd {
				t.Errorf("MonthRange() = %v, want %s..%s", r, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestSpanRange(t *testing.T) {
	r, err := SpanRange(2025, 6, 10)
	if err != nil {
		t.Fatalf("SpanRange() error: %v", err)
	}
	if r.Start != "2025-06-01" || r.End != "2025-10-31" {
		t.Errorf("SpanRange() = %v", r)
	}

	r, err = SpanRange(2025, 11, 12)
	if err != nil {
		t.Fatalf("SpanRange() error: %v", err)
	}
	if r.End != "2025-12-31" {
		t.Errorf("December span end = %s, want 2025-12-31", r.End)
	}
}

func TestSpanRange_Invalid(t *testing.T) {
	cases := []struct {
		name       string
		start, end int
	}{
		{name: "start too low", start: 0, end: 5},
		{name: "end too high", start: 1, end: 13},
		{name: "start after end", start: 8, end: 3},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SpanRange(2025, tt.start, tt.end); err == nil {
				t.Errorf("SpanRange(2025, %d, %d) error = nil, want error", tt.start, tt.end)
			}
		})
	}
}

func TestMonthName(t *testing.T) {
	if got := MonthName("2025-09-15"); got != "September" {
		t.Errorf("MonthName() = %q, want September", got)
	}
	if got := MonthName("bogus"); got != "bogus" {
		t.Errorf("MonthName(bogus) = %q, want raw input", got)
	}
}

func TestYear(t *testing.T) {
	if got := Year("2025-09-15"); got != 2025 {
		t.Errorf("Year() = %d, want 2025", got)
	}
	if got := Year("bogus"); got != 0 {
		t.Errorf("Year(bogus) = %d, want 0", got)
	}
}
