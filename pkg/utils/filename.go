package utils

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	disallowedFilenameChars = regexp.MustCompile(`[^\x{4e00}-\x{9fa5}a-zA-Z0-9_.\-]`)
	trailingSeparators      = regexp.MustCompile(`[._]+$`)
	fileExtension           = regexp.MustCompile(`\.[^/.]+$`)
)

// SanitizeFilename keeps CJK ideographs, ASCII letters, digits, '_', '.', '-'
// and trims trailing '.'/'_'. Empty input yields video_<unixmillis>.mp4.
func SanitizeFilename(name string) string {
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("video_%d.mp4", time.Now().UnixMilli())
	}
	name = disallowedFilenameChars.ReplaceAllString(name, "_")
	name = trailingSeparators.ReplaceAllString(name, "")
	if name == "" {
		return fmt.Sprintf("video_%d", time.Now().UnixMilli())
	}
	return name
}

// ReplaceExtension swaps the extension, appending one when the name has none.
func ReplaceExtension(name, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if fileExtension.MatchString(name) {
		return fileExtension.ReplaceAllString(name, "."+ext)
	}
	return name + "." + ext
}

func ContentDisposition(filename string) string {
	return "attachment; filename*=UTF-8''" + url.PathEscape(filename)
}

// ExtensionFromURL returns the lowercase extension of the URL path without the dot.
func ExtensionFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
}
