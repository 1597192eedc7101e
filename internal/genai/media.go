package genai

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultMinMediaBytes rejects uploads too small to hold any audio.
const DefaultMinMediaBytes = 50 * 1024

var allowedMediaExtensions = map[string]struct{}{
	".mp4":  {},
	".m4a":  {},
	".mp3":  {},
	".wav":  {},
	".webm": {},
	".mpeg": {},
	".oga":  {},
	".ogg":  {},
	".flac": {},
}

// SupportedExtension reports whether filename carries an accepted media extension.
func SupportedExtension(filename string) bool {
	_, ok := allowedMediaExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ValidateMedia checks the extension allow-list and the size floor.
func ValidateMedia(filename string, size, minBytes int64) error {
	if filename == "" || !SupportedExtension(filename) {
		return fmt.Errorf("%w: %q", ErrUnsupportedMedia, filename)
	}
	if minBytes <= 0 {
		minBytes = DefaultMinMediaBytes
	}
	if size < minBytes {
		return fmt.Errorf("%w: %d bytes", ErrMediaTooSmall, size)
	}
	return nil
}
