package statement

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidDocument marks a buffer that is not a well-formed document of the
// expected kind. The usual culprit is a portal serving a login-expired HTML
// page where a statement should be.
var ErrInvalidDocument = errors.New("invalid document")

// Kind is the document kind declared for a statement buffer.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindXLSX Kind = "xlsx"
	KindXLS  Kind = "xls"
)

// magic headers, checked against the first 4 bytes of the buffer.
var magic = map[Kind][]byte{
	KindPDF:  []byte("%PDF"),
	KindXLSX: {0x50, 0x4B, 0x03, 0x04}, // zip container
	KindXLS:  {0xD0, 0xCF, 0x11, 0xE0}, // OLE2 compound document
}

// KindForFilename infers the document kind from a filename extension,
// defaulting to PDF.
func KindForFilename(filename string) Kind {
	switch strings.ToLower(path.Ext(filename)) {
	case ".xlsx":
		return KindXLSX
	case ".xls":
		return KindXLS
	default:
		return KindPDF
	}
}

// Validate checks that buf is a plausible document of the declared kind by
// sniffing its magic header. An empty buffer and a wrong header both fail
// with ErrInvalidDocument.
func Validate(buf []byte, kind Kind) error {
	if len(buf) == 0 {
		return fmt.Errorf("%w: empty buffer", ErrInvalidDocument)
	}

	want, ok := magic[kind]
	if !ok {
		return fmt.Errorf("%w: unsupported document kind %q", ErrInvalidDocument, kind)
	}

	if len(buf) < len(want) || !bytes.Equal(buf[:len(want)], want) {
		got := buf
		if len(got) > 4 {
			got = got[:4]
		}
		return fmt.Errorf("%w: expected %s header, got % X", ErrInvalidDocument, kind, got)
	}
	return nil
}
