// validation.go - Filename sanitization and content-type resolution.
package server

import (
	"path"
	"path/filepath"
	"strings"
)

// ContentKind is the coarse format classification the dashboard uses to
// pick a preview strategy.
type ContentKind string

const (
	KindCSV     ContentKind = "csv"
	KindXLSX    ContentKind = "xlsx"
	KindGzip    ContentKind = "gzip"
	KindJSON    ContentKind = "json"
	KindUnknown ContentKind = "unknown"
)

// extContentTypes maps the extensions the dashboard can preview to their
// MIME types. Extensions outside this map fall back to the client-declared
// content type.
var extContentTypes = map[string]string{
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".gz":   "application/gzip",
	".json": "application/json",
}

var extKinds = map[string]ContentKind{
	".csv":  KindCSV,
	".xlsx": KindXLSX,
	".gz":   KindGzip,
	".json": KindJSON,
}

// sanitizeFilename reduces an untrusted upload name to a bare filename that
// is safe to create inside the spool directory: directory components are
// stripped (both separator conventions), spaces become underscores, any
// character outside [A-Za-z0-9._-] is dropped, and leading/trailing dots and
// spaces are trimmed. Returns ErrInvalidFilename when nothing usable is left.
func sanitizeFilename(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	name = strings.Trim(b.String(), " .")

	if name == "" {
		return "", ErrInvalidFilename
	}

	// Keep well under typical filesystem name limits, preserving the
	// extension so content-kind inference still works.
	const maxLen = 200
	if len(name) > maxLen {
		ext := filepath.Ext(name)
		if len(ext) >= maxLen {
			ext = ""
		}
		name = name[:maxLen-len(ext)] + ext
	}
	return name, nil
}

// contentTypeFor resolves the MIME type reported back to the client.
// Extension mapping wins over the client-declared type; a spoofed
// Content-Type header cannot relabel a recognized extension.
func contentTypeFor(ext, declared string) string {
	if ct, ok := extContentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	if declared != "" {
		return declared
	}
	return "application/octet-stream"
}

// kindForExtension classifies an artifact by its extension alone.
func kindForExtension(ext string) ContentKind {
	if k, ok := extKinds[strings.ToLower(ext)]; ok {
		return k
	}
	return KindUnknown
}
