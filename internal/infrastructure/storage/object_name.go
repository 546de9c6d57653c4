package storage

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AllowedContentType reports whether uploads of contentType are accepted.
func AllowedContentType(contentType string) bool {
	_, ok := extensions[strings.ToLower(contentType)]
	return ok
}

// ObjectName builds "<folder>/<uuid>-<name><ext>". The name part keeps only
// safe characters of the original file name.
func ObjectName(folder, filename, contentType string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "-"), "-")
	if len(base) > 40 {
		base = base[:40]
	}

	name := uuid.New().String()
	if base != "" && base != "." {
		name += "-" + base
	}

	ext, ok := extensions[strings.ToLower(contentType)]
	if !ok {
		ext = ".bin"
	}

	return strings.Trim(folder, "/") + "/" + name + ext
}
