package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Store reads workbooks and writes output documents.
// This interface enables mocking and testing of storage functionality.
type Store interface {
	// Fetch returns the bytes stored at uri.
	Fetch(ctx context.Context, uri string) ([]byte, error)

	// Put replaces the content at uri. Readers never observe a partial write.
	Put(ctx context.Context, uri string, data []byte) error
}

const gcsScheme = "gs://"

// IsGCSURI reports whether uri names a Cloud Storage object.
func IsGCSURI(uri string) bool {
	return strings.HasPrefix(uri, gcsScheme)
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !IsGCSURI(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, gcsScheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// ExtractFilename returns the last path element of a local path or GCS URI.
// e.g., "gs://bucket/fy17/revenue.xlsx" → "revenue.xlsx"
func ExtractFilename(uri string) string {
	if IsGCSURI(uri) {
		trimmed := strings.TrimPrefix(uri, gcsScheme)
		parts := strings.SplitN(trimmed, "/", 2)
		if len(parts) < 2 {
			return trimmed
		}
		return path.Base(parts[1])
	}
	return path.Base(strings.ReplaceAll(uri, "\\", "/"))
}
