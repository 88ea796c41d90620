// Package text decodes uploaded payloads to UTF-8 text.
package text

import (
	"bytes"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.TextDecoder = (*Decoder)(nil)

// Decoder converts text payloads to UTF-8.
//
// Encoding is resolved in order: a byte order mark, the charset parameter of
// the content type, valid UTF-8, and finally Windows-1252, which accepts any
// byte sequence.
type Decoder struct{}

// New creates a new decoder.
func New() *Decoder {
	return &Decoder{}
}

// SupportedMIMETypes returns the media types Decode accepts besides text/*.
func (d *Decoder) SupportedMIMETypes() []string {
	return []string{
		"application/json",
		"application/xml",
		"application/xhtml+xml",
		"application/x-yaml",
		"application/toml",
	}
}

// Decode converts content to UTF-8 text with LF line endings.
// An empty contentType is treated as text/plain. HTML is reduced to its
// visible text.
func (d *Decoder) Decode(content []byte, contentType string) (string, error) {
	mediaType := "text/plain"
	var params map[string]string
	if strings.TrimSpace(contentType) != "" {
		mt, p, err := mime.ParseMediaType(contentType)
		if err != nil {
			return "", domain.NewValidationError("content_type", "malformed content type: "+err.Error())
		}
		mediaType, params = mt, p
	}

	if !d.supports(mediaType) {
		return "", domain.NewValidationError("content_type",
			"unsupported content type "+mediaType+": upload extracted text instead")
	}

	text, err := toUTF8(content, params["charset"])
	if err != nil {
		return "", err
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\x00", "")

	if mediaType == "text/html" || mediaType == "application/xhtml+xml" {
		text = StripHTML(text)
	}
	return text, nil
}

func (d *Decoder) supports(mediaType string) bool {
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	for _, mt := range d.SupportedMIMETypes() {
		if mt == mediaType {
			return true
		}
	}
	return false
}

var boms = [][]byte{
	{0xEF, 0xBB, 0xBF}, // UTF-8
	{0xFF, 0xFE},       // UTF-16LE
	{0xFE, 0xFF},       // UTF-16BE
}

func hasBOM(content []byte) bool {
	for _, bom := range boms {
		if bytes.HasPrefix(content, bom) {
			return true
		}
	}
	return false
}

// toUTF8 decodes content. A BOM always wins over charset.
func toUTF8(content []byte, charset string) (string, error) {
	var enc encoding.Encoding = unicode.UTF8
	switch {
	case charset != "":
		e, err := htmlindex.Get(charset)
		if err != nil {
			return "", domain.NewValidationError("content_type", "unknown charset "+charset)
		}
		enc = e
	case !hasBOM(content) && !utf8.Valid(content):
		enc = charmap.Windows1252
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), content)
	if err != nil {
		return "", domain.NewValidationError("content", "cannot decode payload: "+err.Error())
	}
	return string(out), nil
}
