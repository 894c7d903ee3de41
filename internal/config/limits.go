package config

const (
	// MaxDocumentTitleLength is the maximum length for document titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (titles should be short and descriptive).
	MaxDocumentTitleLength = 255

	// MaxDocumentContentBytes is the maximum document body size. One
	// megabyte of plain text is far beyond any realistic article and keeps
	// oracle prompts bounded.
	MaxDocumentContentBytes = 1 << 20

	// MaxUploadBytes caps the multipart upload body. Slightly above the
	// content limit to leave room for the multipart envelope.
	MaxUploadBytes = MaxDocumentContentBytes + 64*1024
)
