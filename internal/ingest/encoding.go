package ingest

import (
	"fmt"
	"io"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeReader wraps r so that it yields UTF-8. The auto mode follows a byte order
// mark when there is one and assumes UTF-8 otherwise.
func decodeReader(r io.Reader, enc string) (io.Reader, error) {
	var dec transform.Transformer
	switch enc {
	case "", contract.EncodingAuto:
		dec = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	case contract.EncodingUTF8:
		dec = unicode.UTF8BOM.NewDecoder()
	case contract.EncodingUTF16, contract.EncodingUTF16LE:
		dec = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case contract.EncodingUTF16BE:
		dec = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
	return transform.NewReader(r, dec), nil
}
