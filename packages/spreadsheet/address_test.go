package spreadsheet

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
)

func TestEncodeColumn(t *testing.T) {
	tests := []struct {
		col  uint32
		want string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
		{16383, "XFD"},
	}

	for _, tt := range tests {
		if got := EncodeColumn(tt.col); got != tt.want {
			t.Errorf("EncodeColumn(%d) = %s, want %s", tt.col, got, tt.want)
		}
		got, err := DecodeColumn(tt.want)
		if err != nil || got != tt.col {
			t.Errorf("DecodeColumn(%s) = %d, %v; want %d", tt.want, got, err, tt.col)
		}
	}
}

func TestColumnRoundTrip(t *testing.T) {
	for n := uint32(0); n < 20000; n++ {
		got, err := DecodeColumn(EncodeColumn(n))
		if err != nil || got != n {
			t.Fatalf("DecodeColumn(EncodeColumn(%d)) = %d, %v", n, got, err)
		}
	}
	for _, n := range []uint32{math.MaxUint32, math.MaxUint32 - 1, 1 << 31, 475253, 475254} {
		got, err := DecodeColumn(EncodeColumn(n))
		if err != nil || got != n {
			t.Errorf("DecodeColumn(EncodeColumn(%d)) = %d, %v", n, got, err)
		}
	}
}

func TestDecodeColumnOverflow(t *testing.T) {
	largest := EncodeColumn(math.MaxUint32)
	if _, err := DecodeColumn(largest); err != nil {
		t.Fatalf("DecodeColumn(%s) failed: %v", largest, err)
	}
	for _, letters := range []string{"ZZZZZZZZ", largest + "A", "", "a", "A1"} {
		if _, err := DecodeColumn(letters); err == nil {
			t.Errorf("DecodeColumn(%q) succeeded, want error", letters)
		}
	}
}

func TestAddressRoundTrip(t *testing.T) {
	texts := []string{"$A$0", "$A$1", "$AA$10", "$Z$25", "$XFD$1048576", "$B$4294967295"}
	for _, text := range texts {
		addr, err := ParseAddress(text)
		if err != nil {
			t.Errorf("ParseAddress(%s) failed: %v", text, err)
			continue
		}
		if got := FormatAddress(addr); got != text {
			t.Errorf("FormatAddress(ParseAddress(%s)) = %s", text, got)
		}
	}

	addrs := []CellAddress{
		NewCellAddress(0, 0),
		NewCellAddress(26, 10),
		NewCellAddress(math.MaxUint32, math.MaxUint32),
	}
	for _, a := range addrs {
		got, err := ParseAddress(a.String())
		if err != nil || got != a {
			t.Errorf("ParseAddress(%s) = %v, %v; want %v", a, got, err, a)
		}
	}

	aa10, _ := ParseAddress("$AA$10")
	if aa10 != (CellAddress{Column: 26, Row: 10}) {
		t.Errorf("$AA$10 = %+v", aa10)
	}
}

func TestParseAddressMalformed(t *testing.T) {
	malformed := []string{
		"",
		"A1",
		"$A1",
		"A$1",
		"$a$1",
		"$A$",
		"$$1",
		"$A$-1",
		"$A$1x",
		"$A$ 1",
		"$A$4294967296",
		"$A$99999999999",
		"$ZZZZZZZZ$1",
		"$Ä$1",
		"$A$１",
	}

	for _, text := range malformed {
		t.Run(text, func(t *testing.T) {
			_, err := ParseAddress(text)
			if !errors.Is(err, ErrMalformedAddress) {
				t.Errorf("ParseAddress(%q) error = %v, want MalformedAddress", text, err)
			}
		})
	}
}

func TestFindReferences(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"$A$1 + $B$2 * $A$1", []string{"$A$1", "$B$2", "$A$1"}},
		{"inc($AB$12) ** 2", []string{"$AB$12"}},
		{"x$C$3y", []string{"$C$3"}},
		{"$a$1 + A1 + $A1", nil},
		{"", nil},
		{"42", nil},
		{"=$A$1+1", []string{"$A$1"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			refs, err := FindReferences(tt.text)
			if err != nil {
				t.Fatalf("FindReferences(%q) failed: %v", tt.text, err)
			}
			var got []string
			for _, r := range refs {
				got = append(got, r.String())
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("FindReferences(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFindReferencesRejects(t *testing.T) {
	for _, text := range []string{"é + $A$1", "$A$1 + 1 ÷ 2", "$A$99999999999"} {
		if _, err := FindReferences(text); CodeOf(err) != ErrorCodeMalformedAddress {
			t.Errorf("FindReferences(%q) error = %v, want MalformedAddress", text, err)
		}
	}
}

func TestFindReferencesNonASCIIMessage(t *testing.T) {
	_, err := FindReferences("5 é")
	if CodeOf(err) != ErrorCodeMalformedAddress {
		t.Fatalf("error = %v, want MalformedAddress", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "non-ASCII formula text at offset 2") || strings.Contains(msg, "malformed address") {
		t.Errorf("error message = %q", msg)
	}
}
