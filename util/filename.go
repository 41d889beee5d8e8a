package util

import (
	"regexp"
	"strings"
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

// SanitizeFilename makes a video title safe to use as (part of) a filename on common filesystems.
func SanitizeFilename(name string) string {
	clean := invalidFilenameChars.ReplaceAllString(name, "-")
	clean = strings.TrimSpace(clean)
	// Don't allow "filenames" that are just ".", "..", etc.
	if strings.ReplaceAll(clean, ".", "") == "" {
		return "video"
	}
	return clean
}

// MimeExt returns a file extension for a MIME type such as `video/webm; codecs="vp9"`.
func MimeExt(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	_, subtype, ok := strings.Cut(strings.TrimSpace(mimeType), "/")
	if !ok || subtype == "" {
		return "bin"
	}
	switch subtype {
	case "3gpp":
		return "3gp"
	default:
		return subtype
	}
}

// MimeBase strips any parameters from a MIME type, e.g. `audio/webm; codecs="opus"` becomes "audio/webm".
func MimeBase(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mimeType))
}
