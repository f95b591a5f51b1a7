// Package codepage maps Windows code-page numbers, as stored in the header
// of a Pascal AnsiString, to text encodings.
//
// The table is immutable and safe for concurrent use.
package codepage

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/wippyai/innoexec/errors"
)

// Well-known code pages.
const (
	UTF8        uint16 = 65001
	UTF16LE     uint16 = 1200
	UTF16BE     uint16 = 1201
	Windows1252 uint16 = 1252
	USASCII     uint16 = 20127
)

// Entry describes one code page.
type Entry struct {
	Encoding encoding.Encoding
	Name     string
	CodePage uint16
	// CharSize is the width of one code unit in bytes (1 or 2).
	CharSize uint16
}

// asciiEncoding is the strict 7-bit codec; encoding anything above 0x7F fails.
var asciiEncoding = mustIANA("US-ASCII")

func mustIANA(name string) encoding.Encoding {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		panic("codepage: no IANA encoding " + name)
	}
	return enc
}

var table = []Entry{
	{unicode.UTF8, "UTF-8", UTF8, 1},
	{asciiEncoding, "US-ASCII", USASCII, 1},
	{unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), "UTF-16LE", UTF16LE, 2},
	{unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), "UTF-16BE", UTF16BE, 2},

	{charmap.CodePage437, "IBM437", 437, 1},
	{charmap.CodePage850, "IBM850", 850, 1},
	{charmap.CodePage852, "IBM852", 852, 1},
	{charmap.CodePage855, "IBM855", 855, 1},
	{charmap.CodePage858, "IBM00858", 858, 1},
	{charmap.CodePage860, "IBM860", 860, 1},
	{charmap.CodePage862, "IBM862", 862, 1},
	{charmap.CodePage863, "IBM863", 863, 1},
	{charmap.CodePage865, "IBM865", 865, 1},
	{charmap.CodePage866, "IBM866", 866, 1},

	{charmap.Windows874, "windows-874", 874, 1},
	{charmap.Windows1250, "windows-1250", 1250, 1},
	{charmap.Windows1251, "windows-1251", 1251, 1},
	{charmap.Windows1252, "windows-1252", Windows1252, 1},
	{charmap.Windows1253, "windows-1253", 1253, 1},
	{charmap.Windows1254, "windows-1254", 1254, 1},
	{charmap.Windows1255, "windows-1255", 1255, 1},
	{charmap.Windows1256, "windows-1256", 1256, 1},
	{charmap.Windows1257, "windows-1257", 1257, 1},
	{charmap.Windows1258, "windows-1258", 1258, 1},

	{charmap.ISO8859_1, "ISO-8859-1", 28591, 1},
	{charmap.ISO8859_2, "ISO-8859-2", 28592, 1},
	{charmap.ISO8859_3, "ISO-8859-3", 28593, 1},
	{charmap.ISO8859_4, "ISO-8859-4", 28594, 1},
	{charmap.ISO8859_5, "ISO-8859-5", 28595, 1},
	{charmap.ISO8859_6, "ISO-8859-6", 28596, 1},
	{charmap.ISO8859_7, "ISO-8859-7", 28597, 1},
	{charmap.ISO8859_8, "ISO-8859-8", 28598, 1},
	{charmap.ISO8859_9, "ISO-8859-9", 28599, 1},
	{charmap.ISO8859_13, "ISO-8859-13", 28603, 1},
	{charmap.ISO8859_15, "ISO-8859-15", 28605, 1},

	{charmap.KOI8R, "KOI8-R", 20866, 1},
	{charmap.KOI8U, "KOI8-U", 21866, 1},
	{charmap.Macintosh, "macintosh", 10000, 1},

	{japanese.ShiftJIS, "Shift_JIS", 932, 1},
	{japanese.EUCJP, "EUC-JP", 51932, 1},
	{japanese.ISO2022JP, "ISO-2022-JP", 50220, 1},
	{simplifiedchinese.GBK, "GBK", 936, 1},
	{simplifiedchinese.GB18030, "GB18030", 54936, 1},
	{korean.EUCKR, "EUC-KR", 949, 1},
	{traditionalchinese.Big5, "Big5", 950, 1},
}

// aliases are labels the WHATWG index folds into windows-1252 that must keep
// their own code page here.
var aliases = map[string]uint16{
	"ascii":    USASCII,
	"us-ascii": USASCII,
	"us":       USASCII,
}

var byCodePage = func() map[uint16]int {
	m := make(map[uint16]int, len(table))
	for i, e := range table {
		m[e.CodePage] = i
	}
	return m
}()

// Default returns the entry used for text crossing the boundary when no
// code page is given: UTF-8, a superset of US-ASCII.
func Default() Entry {
	return table[0]
}

// Lookup returns the entry for a code page.
func Lookup(cp uint16) (Entry, error) {
	i, ok := byCodePage[cp]
	if !ok {
		return Entry{}, errors.UnknownCodePage(errors.PhaseDecode, cp)
	}
	return table[i], nil
}

// ToEncoding returns the encoding registered for a code page.
func ToEncoding(cp uint16) (encoding.Encoding, error) {
	e, err := Lookup(cp)
	if err != nil {
		return nil, err
	}
	return e.Encoding, nil
}

// FromEncoding returns the code page registered for an encoding.
func FromEncoding(enc encoding.Encoding) (uint16, error) {
	if enc == nil {
		return 0, errors.NilPointer(errors.PhaseEncode, nil, "encoding")
	}
	for _, e := range table {
		if e.Encoding == enc {
			return e.CodePage, nil
		}
	}
	return 0, errors.New(errors.PhaseEncode, errors.KindEncoding).
		Detail("no code page for encoding %v", enc).
		Build()
}

// FromName resolves an encoding label to a code page. Table names and
// aliases win over the IANA and WHATWG indexes.
func FromName(name string) (uint16, error) {
	name = strings.TrimSpace(name)
	for _, e := range table {
		if strings.EqualFold(e.Name, name) {
			return e.CodePage, nil
		}
	}
	if cp, ok := aliases[strings.ToLower(name)]; ok {
		return cp, nil
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		if cp, err := FromEncoding(enc); err == nil {
			return cp, nil
		}
	}
	if enc, err := htmlindex.Get(name); err == nil {
		if cp, err := FromEncoding(enc); err == nil {
			return cp, nil
		}
	}
	return 0, errors.NotFound(errors.PhaseEncode, "encoding", name)
}

// CharSize returns the code unit width for a code page.
func CharSize(cp uint16) (uint16, error) {
	e, err := Lookup(cp)
	if err != nil {
		return 0, err
	}
	return e.CharSize, nil
}

// All returns a copy of the table in registration order.
func All() []Entry {
	out := make([]Entry, len(table))
	copy(out, table)
	return out
}
