package roster

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse_SkipsHeaderAndMalformedRows(t *testing.T) {
	data := `cinemaId,cinemaName,cityCode
"101","Central Plaza","010"
this row has,two fields
"102","Riverside","020"
"103","Too","Many","Fields"
`
	entries := Parse(data)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != "101" || entries[0].Name != "Central Plaza" || entries[0].RegionCode != "010" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].ID != "102" || entries[1].RegionCode != "020" {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestParse_StripsQuotesAndWhitespace(t *testing.T) {
	data := "id,name,city\n  \"101\" , \"Central\" ,\"010\"\n"

	entries := Parse(data)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].ID != "101" || entries[0].Name != "Central" || entries[0].RegionCode != "010" {
		t.Errorf("fields not cleaned: %+v", entries[0])
	}
}

func TestParse_DuplicateIDLastWins(t *testing.T) {
	data := `id,name,city
101,Old Name,010
102,Other,020
101,New Name,030
`
	entries := Parse(data)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != "101" || entries[0].Name != "New Name" || entries[0].RegionCode != "030" {
		t.Errorf("duplicate did not replace in place: %+v", entries[0])
	}
	if entries[1].ID != "102" {
		t.Errorf("entry order disturbed: %+v", entries[1])
	}
}

func TestParse_SkipsEmptyID(t *testing.T) {
	data := "id,name,city\n\"\",Nameless,010\n101,Central,010\n"

	entries := Parse(data)
	if len(entries) != 1 || entries[0].ID != "101" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	if entries := Parse("id,name,city\n"); len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
	if entries := Parse(""); len(entries) != 0 {
		t.Errorf("empty input: got %d entries, want 0", len(entries))
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	content := "id,name,city\n101,Central,010\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "101" {
		t.Errorf("unexpected entries: %+v", entries)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
