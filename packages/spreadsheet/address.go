package spreadsheet

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const addressSeparator = '$'

// referencePattern is the address grammar searched for inside formula text
var referencePattern = regexp.MustCompile(`\$[A-Z]+\$[0-9]+`)

// CellAddress is a zero-based (column, row) coordinate. It is comparable and
// used as a map key everywhere.
type CellAddress struct {
	Column uint32
	Row    uint32
}

// NewCellAddress builds an address from raw coordinates
func NewCellAddress(column, row uint32) CellAddress {
	return CellAddress{Column: column, Row: row}
}

// String renders the canonical $COL$ROW form
func (a CellAddress) String() string {
	return FormatAddress(a)
}

// FormatAddress encodes an address as $<letters>$<row>. It never fails.
func FormatAddress(a CellAddress) string {
	var b strings.Builder
	b.WriteByte(addressSeparator)
	b.WriteString(EncodeColumn(a.Column))
	b.WriteByte(addressSeparator)
	b.WriteString(strconv.FormatUint(uint64(a.Row), 10))
	return b.String()
}

// ParseAddress decodes $<letters>$<digits>
func ParseAddress(text string) (CellAddress, error) {
	if firstNonASCII(text) >= 0 {
		return CellAddress{}, malformed(text, "contains non-ASCII characters")
	}

	if len(text) == 0 || text[0] != addressSeparator {
		return CellAddress{}, malformed(text, "missing leading '$'")
	}
	second := strings.IndexByte(text[1:], addressSeparator)
	if second < 0 {
		return CellAddress{}, malformed(text, "missing '$' between column and row")
	}
	second++

	col, err := DecodeColumn(text[1:second])
	if err != nil {
		return CellAddress{}, malformed(text, err.Error())
	}

	rowText := text[second+1:]
	for i := 0; i < len(rowText); i++ {
		if rowText[i] < '0' || rowText[i] > '9' {
			return CellAddress{}, malformed(text, fmt.Sprintf("invalid row number %q", rowText))
		}
	}
	row, err := strconv.ParseUint(rowText, 10, 32)
	if err != nil {
		return CellAddress{}, malformed(text, fmt.Sprintf("invalid row number %q", rowText))
	}

	return CellAddress{Column: col, Row: uint32(row)}, nil
}

// EncodeColumn converts a zero-based column index to bijective base-26
// letters (0 -> A, 25 -> Z, 26 -> AA)
func EncodeColumn(col uint32) string {
	var letters []byte
	for n := int64(col); n >= 0; n = n/26 - 1 {
		letters = append(letters, byte('A'+n%26))
	}
	// letters were produced least-significant first
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters)
}

// DecodeColumn is the inverse of EncodeColumn
func DecodeColumn(letters string) (uint32, error) {
	if letters == "" {
		return 0, fmt.Errorf("empty column")
	}
	var result uint64
	for i := 0; i < len(letters); i++ {
		ch := letters[i]
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column letter %q", ch)
		}
		result = result*26 + uint64(ch-'A'+1)
		if result-1 > math.MaxUint32 {
			return 0, fmt.Errorf("column %q out of range", letters)
		}
	}
	return uint32(result - 1), nil
}

// FindReferences returns every address mentioned in text, in encounter order
// and with duplicates preserved
func FindReferences(text string) ([]CellAddress, error) {
	if i := firstNonASCII(text); i >= 0 {
		return nil, NewSpreadsheetError(ErrorCodeMalformedAddress,
			fmt.Sprintf("non-ASCII formula text at offset %d", i))
	}

	matches := referencePattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	refs := make([]CellAddress, 0, len(matches))
	for _, m := range matches {
		addr, err := ParseAddress(m)
		if err != nil {
			return nil, err
		}
		refs = append(refs, addr)
	}
	return refs, nil
}

const unicodeMaxASCII = 0x7F

// firstNonASCII returns the byte offset of the first non-ASCII byte, or -1
func firstNonASCII(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] > unicodeMaxASCII {
			return i
		}
	}
	return -1
}

func malformed(text, reason string) *SpreadsheetError {
	return NewSpreadsheetError(ErrorCodeMalformedAddress, fmt.Sprintf("malformed address %q: %s", text, reason))
}
