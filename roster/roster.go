// Package roster loads the fixed venue set monitored during a run.
//
// The roster is a delimited text file: the first row is a header and is
// ignored; each subsequent row carries exactly three fields (venue id,
// venue name, region code). Quote characters are stripped and whitespace
// trimmed. Rows with the wrong field count are silently skipped, so a
// partially hand-edited roster degrades to the rows that still parse.
package roster

import (
	"fmt"
	"os"
	"strings"
)

// Entry is one roster row.
type Entry struct {
	// ID is the venue identifier used in upstream requests.
	ID string

	// Name is the venue's display name.
	Name string

	// RegionCode is the venue's region (city) code.
	RegionCode string
}

// Load reads and parses a roster file.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse parses roster text. Later rows with a duplicate id replace earlier
// ones, matching a keyed load.
func Parse(data string) []Entry {
	lines := strings.Split(strings.TrimSpace(data), "\n")

	byID := make(map[string]int, len(lines))
	entries := make([]Entry, 0, len(lines))
	for i, line := range lines {
		if i == 0 {
			// header row
			continue
		}
		vals := strings.Split(line, ",")
		if len(vals) != 3 {
			continue
		}
		e := Entry{
			ID:         cleanField(vals[0]),
			Name:       cleanField(vals[1]),
			RegionCode: cleanField(vals[2]),
		}
		if e.ID == "" {
			continue
		}
		if at, ok := byID[e.ID]; ok {
			entries[at] = e
			continue
		}
		byID[e.ID] = len(entries)
		entries = append(entries, e)
	}
	return entries
}

func cleanField(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `"`, "")
}
