package driven

// TextDecoder turns an uploaded payload into UTF-8 text for chunking.
// Format-specific extraction (PDF, DOCX) is not part of this contract.
type TextDecoder interface {
	// Decode converts content to UTF-8. contentType may be empty.
	Decode(content []byte, contentType string) (string, error)
}
