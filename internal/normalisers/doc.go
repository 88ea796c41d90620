// Package normalisers turns uploaded payloads into text the chunker can split.
//
// The text subpackage implements driven.TextDecoder: it resolves the payload's
// character encoding to UTF-8 and reduces markup formats to readable text.
// Binary formats such as PDF or DOCX are rejected rather than guessed at.
package normalisers
