package protocol

import (
	"path/filepath"
	"strings"
)

// DefaultContentType is served for any extension outside the table.
const DefaultContentType = "application/octet-stream"

// contentTypes is the full extension table. A static file server for a
// known corpus wants a closed table, not a registry lookup.
var contentTypes = map[string]string{
	".txt":  "text/plain",
	".html": "text/html",
	".css":  "text/css",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".png":  "image/png",
	".json": "application/json",
}

// ContentTypeFor maps a file path to its MIME type by extension,
// case-insensitively. Unknown extensions get DefaultContentType.
func ContentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return DefaultContentType
}
