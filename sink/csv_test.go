package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestCSV_BootstrapsHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	c, err := NewCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	got := readFile(t, path)
	if !strings.HasPrefix(got, "\uFEFF") {
		t.Error("file does not start with a BOM")
	}
	if !strings.Contains(got, `"cityCode","cinemaId"`) {
		t.Errorf("header missing: %q", got)
	}

	// a second sink on the same path must not write a second header
	if _, err := NewCSV(path); err != nil {
		t.Fatal(err)
	}
	if again := readFile(t, path); again != got {
		t.Errorf("file changed on re-open:\nbefore: %q\nafter:  %q", got, again)
	}

	if err := c.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestCSV_AppendNeverTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	c, err := NewCSV(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := c.Append(ctx, []Record{{VenueID: "101", ShowID: "1", SeatsLeft: "5"}}); err != nil {
		t.Fatal(err)
	}
	if err := c.Append(ctx, []Record{{VenueID: "101", ShowID: "2", SeatsLeft: "9"}}); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(readFile(t, path), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if !strings.Contains(lines[1], `"1"`) || !strings.Contains(lines[2], `"2"`) {
		t.Errorf("rows out of order:\n%s", strings.Join(lines[1:], "\n"))
	}
}

func TestCSV_AppendZeroRecordsIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	c, err := NewCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	before := readFile(t, path)

	if err := c.Append(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if after := readFile(t, path); after != before {
		t.Error("empty append changed the file")
	}
}

func TestFormatRow_QuotesAndCleans(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   string
	}{
		{"plain", []string{"a", "b"}, `"a","b"`},
		{"empty becomes sentinel", []string{"", "x"}, `"n/a","x"`},
		{"separator stripped", []string{"Hall, 1"}, `"Hall 1"`},
		{"newlines stripped", []string{"line1\r\nline2"}, `"line1line2"`},
		{"only separators becomes sentinel", []string{",\r\n"}, `"n/a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRow(tt.fields); got != tt.want {
				t.Errorf("formatRow(%q) = %s, want %s", tt.fields, got, tt.want)
			}
		})
	}
}

func TestRecordFields_AlignWithColumns(t *testing.T) {
	r := Record{
		RegionCode: "010", VenueID: "101", VenueName: "Central", ShowID: "9001",
		FilmID: "42", FilmName: "Film", FilmCategory: "Action", FilmDuration: "110",
		Hall: "Hall 1", Language: "EN", Dimension: "2D",
		Price: "40", OriginalPrice: "55", RebatePrice: "35", ServiceCharge: "3",
		StartAt: "2024-06-01 18:30", UpdatedAt: "2024-06-01 12:00", CapturedAt: "2024-06-01 12:05",
		SeatsLeft: "77", Capacity: "150",
	}
	fields := r.fields()
	if len(fields) != len(columns) {
		t.Fatalf("fields/columns length mismatch: %d vs %d", len(fields), len(columns))
	}
	// spot-check positional alignment at both ends and the middle
	if fields[0] != "010" || fields[3] != "9001" || fields[15] != "2024-06-01 18:30" || fields[19] != "150" {
		t.Errorf("field order drifted: %v", fields)
	}
}

func TestDefaultPath(t *testing.T) {
	got := DefaultPath("result", "2024-06-01", 120)
	want := filepath.Join("result", "showwatch.2024-06-01.120.csv")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
