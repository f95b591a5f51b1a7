package codepage

import (
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/wippyai/innoexec/errors"
)

func TestDefault(t *testing.T) {
	d := Default()
	if d.CodePage != UTF8 {
		t.Fatalf("default code page = %d, want %d", d.CodePage, UTF8)
	}
	if d.CharSize != 1 {
		t.Fatalf("default char size = %d, want 1", d.CharSize)
	}
	cp, err := FromEncoding(unicode.UTF8)
	if err != nil {
		t.Fatal(err)
	}
	if cp != UTF8 {
		t.Fatalf("FromEncoding(UTF8) = %d", cp)
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		cp       uint16
		name     string
		charSize uint16
	}{
		{65001, "UTF-8", 1},
		{1200, "UTF-16LE", 2},
		{1252, "windows-1252", 1},
		{20127, "US-ASCII", 1},
		{866, "IBM866", 1},
		{932, "Shift_JIS", 1},
		{28605, "ISO-8859-15", 1},
	}
	for _, tt := range tests {
		e, err := Lookup(tt.cp)
		if err != nil {
			t.Fatalf("Lookup(%d): %v", tt.cp, err)
		}
		if e.Name != tt.name || e.CharSize != tt.charSize {
			t.Errorf("Lookup(%d) = %s/%d, want %s/%d", tt.cp, e.Name, e.CharSize, tt.name, tt.charSize)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup(42)
	if err == nil {
		t.Fatal("expected error for unknown code page")
	}
	if !errors.IsKind(err, errors.KindEncoding) {
		t.Fatalf("kind = %q, want encoding", errors.KindOf(err))
	}
	if _, err := ToEncoding(42); err == nil {
		t.Fatal("ToEncoding should fail for unknown code page")
	}
	if _, err := CharSize(42); err == nil {
		t.Fatal("CharSize should fail for unknown code page")
	}
}

func TestRoundTripTable(t *testing.T) {
	for _, e := range All() {
		cp, err := FromEncoding(e.Encoding)
		if err != nil {
			t.Fatalf("FromEncoding(%s): %v", e.Name, err)
		}
		if cp != e.CodePage {
			t.Errorf("FromEncoding(%s) = %d, want %d", e.Name, cp, e.CodePage)
		}
		enc, err := ToEncoding(e.CodePage)
		if err != nil {
			t.Fatal(err)
		}
		if enc != e.Encoding {
			t.Errorf("ToEncoding(%d) returned a different encoding", e.CodePage)
		}
	}
}

func TestFromEncodingUnknown(t *testing.T) {
	if _, err := FromEncoding(charmap.ISO8859_10); err == nil {
		t.Fatal("expected error for unregistered encoding")
	}
	if _, err := FromEncoding(nil); !errors.IsKind(err, errors.KindNilPointer) {
		t.Fatalf("nil encoding: %v", err)
	}
}

func TestFromName(t *testing.T) {
	tests := map[string]uint16{
		"UTF-8":          65001,
		"utf-8":          65001,
		"windows-1252":   1252,
		"Shift_JIS":      932,
		"KOI8-R":         20866,
		"US-ASCII":       20127,
		"us-ascii":       20127,
		"ascii":          20127,
		"ANSI_X3.4-1968": 20127,
	}
	for name, want := range tests {
		got, err := FromName(name)
		if err != nil {
			t.Fatalf("FromName(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("FromName(%q) = %d, want %d", name, got, want)
		}
	}
	if _, err := FromName("no-such-charset"); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("unknown name: %v", err)
	}
}

func TestUSASCII_Strict(t *testing.T) {
	enc, err := ToEncoding(USASCII)
	if err != nil {
		t.Fatal(err)
	}
	got, err := enc.NewEncoder().String("setup")
	if err != nil || got != "setup" {
		t.Fatalf("encode ascii = %q, %v", got, err)
	}
	if _, err := enc.NewEncoder().String("caf\u00e9"); err == nil {
		t.Fatal("expected error encoding non-ASCII text")
	}
}
