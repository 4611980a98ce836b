package core

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"2024-07-15", "2024-07-15", false},
		{"2023-01-01", "2023-01-01", false},
		{"invalid", "", true},
		{"07/15/2024", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input, time.UTC)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got.Format(APIDateFmt) != tt.want {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got.Format(APIDateFmt), tt.want)
			}
		})
	}
}

func TestNormalizeTimeRange(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"all", "", false},
		{"7d", "7d", false},
		{" 1W ", "1w", false},
		{"1m", "1m", false},
		{"1y", "1y", false},
		{"2y", "", true},
		{"yesterday", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeTimeRange(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("NormalizeTimeRange(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("NormalizeTimeRange(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEncodeTimeRange(t *testing.T) {
	now := time.Date(2024, time.March, 31, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		rangeName string
		wantFrom  string
		wantTo    string
	}{
		{TimeRange7Days, "2024-03-24", "2024-03-31"},
		{TimeRange1Week, "2024-03-24", "2024-03-31"},
		{TimeRange1Month, "2024-03-02", "2024-03-31"}, // Feb 31 normalizes to Mar 2
		{TimeRange1Year, "2023-03-31", "2024-03-31"},
		{"", "", ""},
		{TimeRangeAll, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.rangeName, func(t *testing.T) {
			from, to := EncodeTimeRange(tt.rangeName, now)
			if from != tt.wantFrom || to != tt.wantTo {
				t.Errorf("EncodeTimeRange(%q) = {%s, %s}, want {%s, %s}", tt.rangeName, from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestTimeRangeRoundTrip(t *testing.T) {
	now := time.Date(2025, time.June, 10, 9, 30, 0, 0, time.UTC)
	today := DateOnly(now)

	from, to := EncodeTimeRange(TimeRange1Year, now)

	decodedTo, err := ParseDate(to, time.UTC)
	if err != nil {
		t.Fatalf("ParseDate(to) failed: %v", err)
	}
	decodedFrom, err := ParseDate(from, time.UTC)
	if err != nil {
		t.Fatalf("ParseDate(from) failed: %v", err)
	}

	if !decodedTo.Equal(today) {
		t.Errorf("Expected to == %s, got %s", FormatDate(today), FormatDate(decodedTo))
	}
	if !decodedFrom.Equal(today.AddDate(-1, 0, 0)) {
		t.Errorf("Expected from == %s, got %s", FormatDate(today.AddDate(-1, 0, 0)), FormatDate(decodedFrom))
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a.jpg, ,b.jpg,")
	if len(got) != 2 || got[0] != "a.jpg" || got[1] != "b.jpg" {
		t.Errorf("SplitList = %v, want [a.jpg b.jpg]", got)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Errorf("SplitList(\"\") = %v, want empty", got)
	}
}

func TestDateOnlyKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	d := DateOnly(time.Date(2024, 7, 15, 23, 59, 0, 0, loc))
	if d.Location() != loc || d.Hour() != 0 || d.Day() != 15 {
		t.Errorf("DateOnly = %v, want 2024-07-15 00:00 in UTC+8", d)
	}
}
