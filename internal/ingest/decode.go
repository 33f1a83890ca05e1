// Package ingest reads business records, ad group lists and term uploads
// from CSV (UTF-8, UTF-8 with BOM, or CP949) and XLSX sources.
package ingest

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/korean"
)

// ErrInvalidInput marks input that cannot be used as given. Callers treat it
// as a user error rather than an internal failure.
var ErrInvalidInput = eris.New("ingest: invalid input")

var utf8BOM = []byte("\xef\xbb\xbf")

// DecodeText converts uploaded bytes to UTF-8. A UTF-8 BOM is stripped;
// input that is not valid UTF-8 is decoded as CP949, and anything that still
// fails has its invalid sequences dropped.
func DecodeText(raw []byte) string {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw)
	}
	if decoded, err := korean.EUCKR.NewDecoder().Bytes(raw); err == nil && !bytes.ContainsRune(decoded, utf8.RuneError) {
		return string(decoded)
	}
	return strings.ToValidUTF8(string(raw), "")
}
