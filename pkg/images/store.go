package images

import (
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var commonExtensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/avif":    "avif",
	"image/svg+xml": "svg",
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store writes images under <dir>/<session>/article_<n>.<ext>.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data for the item at zero-based index in session and returns
// the file path.
func (s *Store) Save(session string, index int, data []byte, contentType, sourceURL string) (string, error) {
	sessionDir := filepath.Join(s.dir, SafeName(session))
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	name := fmt.Sprintf("article_%d.%s", index+1, Extension(sourceURL, contentType))
	target := filepath.Join(sessionDir, name)

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return target, nil
}

// SafeName turns a session name into a directory name.
func SafeName(name string) string {
	safe := strings.Trim(unsafeName.ReplaceAllString(name, "_"), "._")
	if safe == "" {
		return "session"
	}
	return safe
}

// Extension picks a file extension from the content type, then the URL
// path, then "bin".
func Extension(sourceURL, contentType string) string {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if ext, ok := commonExtensions[mediaType]; ok {
				return ext
			}
			if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
				return strings.TrimPrefix(exts[0], ".")
			}
		}
	}

	if u, err := url.Parse(sourceURL); err == nil {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
		if ext == "jpeg" {
			ext = "jpg"
		}
		if ext != "" && len(ext) <= 5 && !strings.ContainsAny(ext, "/\\") {
			return ext
		}
	}

	return "bin"
}
