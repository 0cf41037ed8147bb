package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_EmptyBufferFails(t *testing.T) {
	err := Validate(nil, KindPDF)
	require.ErrorIs(t, err, ErrInvalidDocument)

	err = Validate([]byte{}, KindPDF)
	require.ErrorIs(t, err, ErrInvalidDocument)
}

func TestValidate_WellFormedPDF(t *testing.T) {
	assert.NoError(t, Validate([]byte("%PDF-1.7\n...content..."), KindPDF))
}

func TestValidate_WellFormedXLSX(t *testing.T) {
	assert.NoError(t, Validate([]byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x01}, KindXLSX))
}

func TestValidate_WellFormedLegacyXLS(t *testing.T) {
	// Legacy .xls is an OLE2 compound document, not a zip container.
	assert.NoError(t, Validate([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1}, KindXLS))
	assert.Error(t, Validate([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1}, KindXLSX))
}

func TestValidate_WrongMagicReportsOffendingBytes(t *testing.T) {
	// The classic failure: an HTML login page served instead of a PDF.
	err := Validate([]byte("<!DOCTYPE html><html>...session expired...</html>"), KindPDF)
	require.ErrorIs(t, err, ErrInvalidDocument)
	assert.Contains(t, err.Error(), "3C 21 44 4F") // "<!DO"
}

func TestValidate_TruncatedHeaderFails(t *testing.T) {
	err := Validate([]byte("%P"), KindPDF)
	require.ErrorIs(t, err, ErrInvalidDocument)
}

func TestValidate_UnsupportedKind(t *testing.T) {
	err := Validate([]byte("%PDF"), Kind("docx"))
	require.ErrorIs(t, err, ErrInvalidDocument)
}

func TestKindForFilename(t *testing.T) {
	assert.Equal(t, KindPDF, KindForFilename("statement.pdf"))
	assert.Equal(t, KindPDF, KindForFilename("statement.PDF"))
	assert.Equal(t, KindXLSX, KindForFilename("export.xlsx"))
	assert.Equal(t, KindXLS, KindForFilename("export.XLS"))
	assert.Equal(t, KindPDF, KindForFilename("noextension"))
}
