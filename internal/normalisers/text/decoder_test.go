package text

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		content     []byte
		contentType string
		want        string
	}{
		{
			name:    "plain utf-8",
			content: []byte("Grüße aus Köln"),
			want:    "Grüße aus Köln",
		},
		{
			name:    "utf-8 bom stripped",
			content: append([]byte{0xEF, 0xBB, 0xBF}, "hello"...),
			want:    "hello",
		},
		{
			name:    "utf-16le bom",
			content: []byte{0xFF, 0xFE, 'h', 0, 'i', 0},
			want:    "hi",
		},
		{
			name:    "utf-16be bom",
			content: []byte{0xFE, 0xFF, 0, 'h', 0, 'i'},
			want:    "hi",
		},
		{
			name:    "invalid utf-8 falls back to windows-1252",
			content: []byte("caf\xe9 \x93quoted\x94"),
			want:    "café “quoted”",
		},
		{
			name:        "explicit charset",
			content:     []byte("na\xefve"),
			contentType: "text/plain; charset=iso-8859-1",
			want:        "naïve",
		},
		{
			name:    "crlf normalised",
			content: []byte("line one\r\nline two\r\n"),
			want:    "line one\nline two\n",
		},
		{
			name:        "markdown kept verbatim",
			content:     []byte("# Welcome\n\n- item"),
			contentType: "text/markdown",
			want:        "# Welcome\n\n- item",
		},
		{
			name:        "html stripped",
			content:     []byte("<html><head><title>x</title></head><body><h1>Hi &amp; welcome</h1><script>evil()</script><p>First   day</p></body></html>"),
			contentType: "text/html; charset=utf-8",
			want:        "Hi & welcome\nFirst day",
		},
		{
			name:        "json accepted",
			content:     []byte(`{"a":1}`),
			contentType: "application/json",
			want:        `{"a":1}`,
		},
		{
			name: "empty payload",
			want: "",
		},
	}

	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Decode(tt.content, tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
	}{
		{"pdf", "application/pdf"},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"malformed", "text/plain; charset"},
		{"unknown charset", "text/plain; charset=klingon"},
	}

	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Decode([]byte("data"), tt.contentType)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestStripHTML(t *testing.T) {
	in := `<div>
		<!-- hidden -->
		<style>p { color: red }</style>
		<ul><li>One</li><li>Two</li></ul>
		Line<br/>break
	</div>`
	assert.Equal(t, "One\nTwo\nLine\nbreak", StripHTML(in))
}
